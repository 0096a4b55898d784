package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wolfitem/news-enricher/internal/domain/classifier"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

type aiController struct {
	news    NewsService
	metrics *middleware.MetricsCollector
	started time.Time
}

// ClassifyRequest is the body of POST /ai/test.
type ClassifyRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// RegisterAIRoutes registers the classifier diagnostics.
func RegisterAIRoutes(r *gin.Engine, news NewsService, metrics *middleware.MetricsCollector) {
	ac := &aiController{news: news, metrics: metrics, started: time.Now()}
	r.GET("/ai/stats", ac.handleStats)
	r.POST("/ai/test", ac.handleTest)
}

func (ac *aiController) handleStats(c *gin.Context) {
	server := gin.H{
		"uptime":    time.Since(ac.started).Seconds(),
		"memory":    logger.ReadMemStats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	body := gin.H{
		"ai":     ac.news.ClassifierStats(),
		"server": server,
	}
	if ac.metrics != nil {
		body["pipeline"] = ac.metrics.GetReport()
	}
	c.JSON(http.StatusOK, body)
}

func (ac *aiController) handleTest(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	result, err := ac.news.Classify(req.Title + " " + req.Summary)
	if errors.Is(err, classifier.ErrNotTrained) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classifier test failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article":        req,
		"classification": result,
	})
}
