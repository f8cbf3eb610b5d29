package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort      int
	serveOutputDir string
	serveDaemon    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [stop|status]",
	Short: "Start the clipping web UI",
	Long: `Start the web UI and its JSON API.

Examples:
  vclip serve              # Start on port 7860
  vclip serve -p 9000      # Start on port 9000
  vclip serve -d           # Run as background daemon
  vclip serve stop         # Stop the daemon
  vclip serve -o ~/clips   # Use a custom output directory

API Endpoints:
  POST /api/upload         # Upload media (multipart "file")
  POST /api/recognize      # ASR, optionally with speaker diarization
  POST /api/clip           # Clip by text or speaker
  POST /api/llm/infer      # Ask an LLM for segments
  POST /api/llm/clip       # Clip the LLM's timestamps
  GET  /api/llm/models     # Model catalogue
  GET  /api/files/*path    # Preview artifacts
  GET  /api/health         # Health check`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			switch args[0] {
			case "stop":
				return newDaemon().stop()
			case "status":
				return newDaemon().status()
			default:
				return fmt.Errorf("unknown serve action %q", args[0])
			}
		}
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: 7860)")
	serveCmd.Flags().StringVarP(&serveOutputDir, "output", "o", "", "output directory for uploads and clips")
	serveCmd.Flags().BoolVarP(&serveDaemon, "daemon", "d", false, "run as background daemon")

	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// flag > config > default
	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}
	if port == 0 {
		port = 7860
	}
	cfg.OutputDir = outputDir(serveOutputDir, cfg)

	if serveDaemon {
		return newDaemon().start(port, cfg.OutputDir)
	}
	return runServer(cfg, port)
}

// runServer runs the server in the foreground until SIGINT or SIGTERM.
func runServer(cfg *config.Config, port int) error {
	if err := ensurePIN(cfg); err != nil {
		return err
	}
	c, err := newClipper(cfg, filepath.Join(cfg.OutputDir, "work"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(cfg.OutputDir, "work"), 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	srv, err := server.NewServer(cfg, c, llm.NewDefault(cfg))
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logging.Component("server").Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	fmt.Printf("  %s %s\n\n", i18n.T(cfg.Language).CLI.ServerStarted, color.CyanString("http://localhost:%d", port))
	return srv.Start(port)
}
