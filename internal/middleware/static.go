package middleware

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

// StaticFallback serves files from dir for GET and HEAD requests that matched no route.
// Anything else gets the 404 envelope.
func StaticFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			if file, ok := resolveStatic(dir, c.Request.URL.Path); ok {
				c.File(file)
				return
			}
		}

		HandleAPIError(c, apperrors.NewResourceNotFoundError("Route not found"))
	}
}

// resolveStatic maps a request path to a regular file inside dir.
// Cleaning the rooted path keeps lookups from escaping dir.
func resolveStatic(dir, requestPath string) (string, bool) {
	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+requestPath)))

	info, err := os.Stat(name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		name = filepath.Join(name, "index.html")
		if info, err = os.Stat(name); err != nil || info.IsDir() {
			return "", false
		}
	}
	return name, true
}
