// Package server serves the clipping web UI and its JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/guiyumin/vclip/internal/core/logging"
)

// Response is the standard API response structure
type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// ClipService runs recognition and clipping. *clipper.Clipper satisfies it.
type ClipService interface {
	Recognize(ctx context.Context, mediaPath string, opts clipper.RecognizeOptions) (*clipper.State, error)
	Clip(ctx context.Context, st *clipper.State, req clipper.ClipRequest) (*clipper.ClipResult, error)
}

// Inferrer answers LLM requests. *llm.Dispatcher satisfies it.
type Inferrer interface {
	Infer(ctx context.Context, req llm.Request) string
}

// Server is the HTTP server for vclip
type Server struct {
	cfg       *config.Config
	svc       ClipService
	inf       Inferrer
	sessions  *SessionStore
	outputDir string
	uploadDir string
	workDir   string
	apiKey    string
	engine    *gin.Engine
	server    *http.Server
}

// NewServer wires the routes. outputDir in cfg is the root for uploads,
// artifacts and /api/files.
func NewServer(cfg *config.Config, svc ClipService, inf Inferrer) (*Server, error) {
	outputDir := config.NormalizeOutputDir(cfg.OutputDir)
	if outputDir == "" {
		outputDir = config.NormalizeOutputDir(config.DefaultOutputDir())
	}

	s := &Server{
		cfg:       cfg,
		svc:       svc,
		inf:       inf,
		sessions:  NewSessionStore(time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute),
		outputDir: outputDir,
		uploadDir: filepath.Join(outputDir, "uploads"),
		workDir:   filepath.Join(outputDir, "work"),
		apiKey:    cfg.Server.APIKey,
	}

	s.sessions.OnEvict = s.release

	for _, dir := range []string{s.outputDir, s.uploadDir, s.workDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger())
	if s.apiKey != "" {
		s.engine.Use(s.authMiddleware())
	}

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/i18n", s.handleI18n)
	api.POST("/upload", s.handleUpload)
	api.POST("/recognize", s.handleRecognize)
	api.POST("/clip", s.handleClip)
	api.POST("/llm/infer", s.handleLLMInfer)
	api.POST("/llm/clip", s.handleLLMClip)
	api.GET("/llm/models", s.handleModels)
	api.GET("/files/*path", s.handleFile)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)

	if ui := loadWebUI(); ui != nil {
		ui.mount(s.engine)
	}

	return s, nil
}

// Handler exposes the gin engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on port and blocks until the server stops.
func (s *Server) Start(port int) error {
	log := logging.Component("server")
	if !config.Exists() {
		t := i18n.T(s.cfg.Language)
		log.Warn(t.Server.NoConfigWarning)
		log.Info(t.Server.RunInitHint)
	}

	s.sessions.Start()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Minute,
		WriteTimeout: 0, // clips can take a while
		IdleTimeout:  120 * time.Second,
	}

	log.WithField("port", port).WithField("output_dir", s.outputDir).Info("starting vclip server")
	if s.apiKey != "" {
		log.Info("API key authentication enabled")
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.sessions.Stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func ok(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Response{Code: 200, Data: data, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Code: status, Data: nil, Message: message})
}
