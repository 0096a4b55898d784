package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes registers the liveness probe.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}
