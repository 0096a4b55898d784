package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfitem/news-enricher/internal/infrastructure/database"
)

const defaultImageTTL = 24 * time.Hour

// ImageCache remembers main image lookups by article URL. A found entry with
// an empty image means the page has no image.
type ImageCache interface {
	Get(ctx context.Context, pageURL string) (image string, found bool, err error)
	Set(ctx context.Context, pageURL, image string, ttl time.Duration) error
}

// CacheStats describes the sqlite image cache.
type CacheStats struct {
	TotalItems    int64     `json:"totalItems"`
	ExpiredItems  int64     `json:"expiredItems"`
	LastCleanTime time.Time `json:"lastCleanTime"`
}

// SQLiteImageCache keeps image lookups in the sqlite database.
type SQLiteImageCache struct {
	repo database.ImageRepository
	now  func() time.Time

	mu    sync.Mutex
	stats CacheStats
}

func NewSQLiteImageCache(db database.Database) *SQLiteImageCache {
	return &SQLiteImageCache{
		repo: database.NewSQLiteImageRepository(db),
		now:  time.Now,
		stats: CacheStats{
			LastCleanTime: time.Now(),
		},
	}
}

func (c *SQLiteImageCache) Get(ctx context.Context, pageURL string) (string, bool, error) {
	image, found, err := c.repo.GetImage(ctx, pageURL, c.now())
	if err != nil {
		return "", false, fmt.Errorf("read image cache: %w", err)
	}
	return image, found, nil
}

func (c *SQLiteImageCache) Set(ctx context.Context, pageURL, image string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultImageTTL
	}
	return c.repo.PutImage(ctx, pageURL, image, c.now().Add(ttl))
}

// CleanExpiredItems drops entries past their expiry.
func (c *SQLiteImageCache) CleanExpiredItems(ctx context.Context) error {
	count, err := c.repo.DeleteExpired(ctx, c.now())
	if err != nil {
		return fmt.Errorf("clean image cache: %w", err)
	}

	c.mu.Lock()
	c.stats.ExpiredItems = count
	c.stats.LastCleanTime = c.now()
	c.mu.Unlock()
	return nil
}

func (c *SQLiteImageCache) GetCacheStats(ctx context.Context) CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if count, err := c.repo.CountImages(ctx); err == nil {
		c.stats.TotalItems = count
	}
	return c.stats
}
