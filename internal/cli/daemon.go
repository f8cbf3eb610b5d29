package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
)

var errDaemonNotRunning = errors.New("daemon is not running")

// daemon tracks a background `vclip serve` through a PID file.
type daemon struct {
	pidFile string
	logFile string
}

func newDaemon() *daemon {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return &daemon{
		pidFile: filepath.Join(dir, "serve.pid"),
		logFile: filepath.Join(dir, "serve.log"),
	}
}

// pid returns the recorded PID of a live process, or 0. A stale PID file
// is removed.
func (d *daemon) pid() int {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 || !processExists(pid) {
		os.Remove(d.pidFile)
		return 0
	}
	return pid
}

func (d *daemon) start(port int, outputDir string) error {
	if pid := d.pid(); pid > 0 {
		return fmt.Errorf("daemon already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0755); err != nil {
		return err
	}

	logFile, err := os.OpenFile(d.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, "serve", "-p", strconv.Itoa(port), "-o", outputDir)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		cmd.Process.Kill()
		return fmt.Errorf("failed to save PID: %w", err)
	}

	fmt.Printf("vclip server started as daemon (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  Port:   %d\n", port)
	fmt.Printf("  Output: %s\n", outputDir)
	fmt.Printf("  Log:    %s\n", d.logFile)
	fmt.Println(hintStyle.Render("Use 'vclip serve stop' to stop it."))
	return nil
}

func (d *daemon) stop() error {
	pid := d.pid()
	if pid == 0 {
		return errDaemonNotRunning
	}

	proc, err := os.FindProcess(pid)
	if err == nil {
		err = proc.Signal(syscall.SIGTERM)
	}
	if err != nil {
		os.Remove(d.pidFile)
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	// Give the server its graceful shutdown window.
	deadline := time.Now().Add(3 * time.Second)
	for processExists(pid) && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}

	os.Remove(d.pidFile)
	fmt.Println("Daemon stopped")
	return nil
}

func (d *daemon) status() error {
	pid := d.pid()
	if pid == 0 {
		fmt.Println("Daemon is not running")
		return nil
	}
	fmt.Printf("Daemon is running (PID %d)\n", pid)
	fmt.Printf("Log file: %s\n", d.logFile)
	return nil
}

// processExists sends signal 0, since FindProcess always succeeds on Unix.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
