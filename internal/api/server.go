// Package api exposes the enriched news over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wolfitem/news-enricher/internal/domain/classifier"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

const requestIDHeader = "X-Request-ID"

// NewsService is what the handlers need from the enrichment pipeline.
type NewsService interface {
	ListArticles(ctx context.Context) ([]model.ArticleRecord, error)
	ArticlesByCategory(ctx context.Context, category string) ([]model.ArticleRecord, error)
	ArchivedArticles(ctx context.Context, category string, limit int) ([]model.ArticleRecord, error)
	Classify(text string) (classifier.Result, error)
	ClassifierStats() classifier.Stats
	Estimate(ctx context.Context) int
}

// NewRouter constructs a Gin engine with registered routes. metrics may be nil.
func NewRouter(news NewsService, metrics *middleware.MetricsCollector) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(), cors())

	RegisterHealthRoutes(r)
	RegisterNewsRoutes(r, news)
	RegisterAIRoutes(r, news, metrics)
	return r
}

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	log := logger.WithContext("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
