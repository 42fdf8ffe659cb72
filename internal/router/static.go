package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"salescatalog/internal/apierror"

	"github.com/gin-gonic/gin"
)

// spaFallback serves the built frontend from dir: existing files as-is and
// index.html for any other non-API GET, so client-side routes survive a reload.
// API paths and a disabled dir get a JSON 404.
func spaFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(p, "/api/") || p == "/api" ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, apierror.New("Not found"))
			return
		}

		rel := filepath.FromSlash(strings.TrimPrefix(path.Clean("/"+p), "/"))
		if rel != "" {
			full := filepath.Join(dir, rel)
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				c.File(full)
				return
			}
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			c.JSON(http.StatusNotFound, apierror.New("Not found"))
			return
		}
		c.File(index)
	}
}
