package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxArchiveLimit = 500

type newsController struct {
	news NewsService
}

// RegisterNewsRoutes registers the article routes.
func RegisterNewsRoutes(r *gin.Engine, news NewsService) {
	nc := &newsController{news: news}
	r.GET("/news", nc.handleList)
	r.GET("/news/:category", nc.handleCategory)
	r.GET("/estimate", nc.handleEstimate)
	r.GET("/archive", nc.handleArchive)
}

func (nc *newsController) handleList(c *gin.Context) {
	articles, err := nc.news.ListArticles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch news"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (nc *newsController) handleCategory(c *gin.Context) {
	articles, err := nc.news.ArticlesByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch news for category"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (nc *newsController) handleEstimate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"estimate": nc.news.Estimate(c.Request.Context())})
}

func (nc *newsController) handleArchive(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxArchiveLimit)
	}

	articles, err := nc.news.ArchivedArticles(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
		return
	}
	c.JSON(http.StatusOK, articles)
}
