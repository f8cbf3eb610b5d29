package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// requestLogger logs one line per request. Server errors log at error
// level, client errors at warn.
func requestLogger() gin.HandlerFunc {
	log := logging.Component("http")
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}

// publicRoutes stay readable without a key so the UI can render its login
// state.
var publicRoutes = map[string]bool{
	"/api/health":     true,
	"/api/i18n":       true,
	"/api/llm/models": true,
}

// authMiddleware requires the API key on every other /api call. Media
// elements cannot send headers, so the key is also accepted as ?key=.
func (s *Server) authMiddleware() gin.HandlerFunc {
	want := []byte(s.apiKey)
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !strings.HasPrefix(path, "/api/") || publicRoutes[path] {
			c.Next()
			return
		}

		got := c.GetHeader("X-API-Key")
		if got == "" {
			got = c.Query("key")
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			fail(c, http.StatusUnauthorized, "invalid or missing API key")
			c.Abort()
			return
		}
		c.Next()
	}
}
