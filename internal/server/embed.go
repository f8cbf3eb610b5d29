package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed all:dist
var distFS embed.FS

// webUI is the embedded single-page clipping UI.
type webUI struct {
	files fs.FS
	index []byte
}

// loadWebUI returns nil when the build carries no dist/index.html.
func loadWebUI() *webUI {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil
	}
	index, err := fs.ReadFile(sub, "index.html")
	if err != nil {
		return nil
	}
	return &webUI{files: sub, index: index}
}

// mount serves the bundle's assets and answers every other non-API path
// with index.html. Unknown /api paths keep the JSON envelope.
func (u *webUI) mount(r *gin.Engine) {
	r.GET("/assets/*filepath", func(c *gin.Context) {
		c.FileFromFS(c.Request.URL.Path, http.FS(u.files))
	})

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			fail(c, http.StatusNotFound, "not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", u.index)
	})
}
