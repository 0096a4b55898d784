package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wolfitem/news-enricher/internal/infrastructure/database"
)

func TestSQLiteImageCache(t *testing.T) {
	t.Parallel()

	db := database.NewSQLiteDatabase(filepath.Join(t.TempDir(), "cache.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	cache := NewSQLiteImageCache(db)
	clock := time.Now()
	cache.now = func() time.Time { return clock }

	if err := cache.Set(ctx, "https://ex.com/a", "https://ex.com/a.jpg", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Set(ctx, "https://ex.com/none", "", 0); err != nil {
		t.Fatalf("Set(negative) error = %v", err)
	}

	image, found, err := cache.Get(ctx, "https://ex.com/a")
	if err != nil || !found || image != "https://ex.com/a.jpg" {
		t.Fatalf("Get() = %q, %v, %v", image, found, err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, found, _ := cache.Get(ctx, "https://ex.com/a"); found {
		t.Error("entry outlived its ttl")
	}
	if image, found, _ := cache.Get(ctx, "https://ex.com/none"); !found || image != "" {
		t.Errorf("negative entry = %q, %v, want the default ttl to keep it", image, found)
	}

	if err := cache.CleanExpiredItems(ctx); err != nil {
		t.Fatalf("CleanExpiredItems() error = %v", err)
	}
	stats := cache.GetCacheStats(ctx)
	if stats.ExpiredItems != 1 || stats.TotalItems != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
