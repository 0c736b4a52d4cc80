package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// SetupStaticRoutes serves the dataset directory under /data and, when the
// static directory exists, the survey front-end at /.
func SetupStaticRoutes(router *gin.Engine, dataDir, staticDir string) {
	router.Static("/data", dataDir)

	index := filepath.Join(staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		router.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, "Argument survey server is running. Use /api/survey/sessions to take the survey.")
		})
		return
	}
	router.StaticFile("/", index)
	router.NoRoute(func(c *gin.Context) {
		path := filepath.Join(staticDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	})
}
