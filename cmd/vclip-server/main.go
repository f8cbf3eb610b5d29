package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/media"
	"github.com/guiyumin/vclip/internal/core/version"
	"github.com/guiyumin/vclip/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	port := flag.Int("port", 0, "HTTP listen port (default: 7860)")
	output := flag.String("output", "", "output directory for uploads and clips")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vclip-server %s\n", version.Version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		if config.Exists() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = config.DefaultConfig()
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	log := logging.Component("main")

	// flag > config > default
	serverPort := *port
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}
	if serverPort == 0 {
		serverPort = 7860
	}
	if dir := config.NormalizeOutputDir(*output); dir != "" {
		cfg.OutputDir = dir
	}
	if config.NormalizeOutputDir(cfg.OutputDir) == "" {
		cfg.OutputDir = config.DefaultOutputDir()
	}
	cfg.OutputDir = config.NormalizeOutputDir(cfg.OutputDir)

	key, err := cfg.ResolveKey("asr", config.EnvPIN())
	if err != nil {
		log.WithError(err).Fatal("failed to open ASR key")
	}
	rec, err := asr.New(cfg.ASR, key)
	if err != nil {
		log.WithError(err).Fatal("failed to set up speech recognition")
	}

	workDir := filepath.Join(cfg.OutputDir, "work")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		log.WithError(err).Fatal("failed to create work directory")
	}
	c := clipper.New(rec, media.NewFFmpeg(cfg.FFmpeg), workDir)
	c.SetFontName(cfg.Subtitle.FontName)

	srv, err := server.NewServer(cfg, c, llm.NewDefault(cfg))
	if err != nil {
		log.WithError(err).Fatal("failed to create server")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	if err := srv.Start(serverPort); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
