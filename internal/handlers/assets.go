// SPDX-License-Identifier: MIT
package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// MediaAssetHandler serves files from a local media store rooted at mediaDir
func MediaAssetHandler(mediaDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get key from URL
		key := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
		if key == "" || key == "." {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		// Build full path to file
		filePath := filepath.Join(mediaDir, filepath.FromSlash(key))

		info, err := os.Stat(filePath)
		if err != nil || !info.Mode().IsRegular() {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.File(filePath)
	}
}
