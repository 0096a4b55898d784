package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wolfitem/news-enricher/internal/domain/model"
)

func openTestDB(t *testing.T) Database {
	t.Helper()

	db := NewSQLiteDatabase(filepath.Join(t.TempDir(), "data", "test.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestArticleRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSQLiteArticleRepository(openTestDB(t))

	older := model.ArticleRecord{
		Title:       "Match report",
		Link:        "https://ex.com/match",
		PublishDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Summary:     "team won",
		SourceName:  "Sports Daily",
		Image:       strPtr("https://ex.com/photo.jpg"),
		Category:    "sports",
		Confidence:  0.66,
		Explanation: "keyword match: 2 keywords found",
	}
	newer := model.ArticleRecord{
		Title:       "Chip launch",
		Link:        "https://ex.com/chip",
		PublishDate: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Summary:     "new chip",
		SourceName:  "Tech Wire",
		Category:    "technology",
	}

	for _, a := range []model.ArticleRecord{older, newer} {
		if err := repo.SaveArticle(ctx, a); err != nil {
			t.Fatalf("SaveArticle(%s) error = %v", a.Link, err)
		}
	}

	exists, err := repo.ArticleExists(ctx, older.Link)
	if err != nil || !exists {
		t.Fatalf("ArticleExists() = %v, %v, want true", exists, err)
	}

	got, err := repo.GetArticleByLink(ctx, older.Link)
	if err != nil {
		t.Fatalf("GetArticleByLink() error = %v", err)
	}
	if got == nil || got.ImageURL() != "https://ex.com/photo.jpg" || !got.PublishDate.Equal(older.PublishDate) {
		t.Fatalf("GetArticleByLink() = %+v", got)
	}

	missing, err := repo.GetArticleByLink(ctx, "https://ex.com/none")
	if err != nil || missing != nil {
		t.Fatalf("GetArticleByLink(unknown) = %+v, %v, want nil, nil", missing, err)
	}

	list, err := repo.ListArticles(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListArticles() error = %v", err)
	}
	if len(list) != 2 || list[0].Link != newer.Link {
		t.Fatalf("ListArticles() = %+v, want newest first", list)
	}
	if list[0].Image != nil {
		t.Errorf("article without image came back with %q", *list[0].Image)
	}

	sports, err := repo.ListArticles(ctx, "sports", 10)
	if err != nil || len(sports) != 1 || sports[0].Link != older.Link {
		t.Fatalf("ListArticles(sports) = %+v, %v", sports, err)
	}

	older.Category = "business"
	if err := repo.SaveArticle(ctx, older); err != nil {
		t.Fatalf("SaveArticle(update) error = %v", err)
	}
	count, err := repo.CountArticles(ctx)
	if err != nil || count != 2 {
		t.Fatalf("CountArticles() = %d, %v, want 2", count, err)
	}
	got, _ = repo.GetArticleByLink(ctx, older.Link)
	if got.Category != "business" {
		t.Errorf("category after update = %q, want business", got.Category)
	}
}

func TestImageRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSQLiteImageRepository(openTestDB(t))
	now := time.Now()

	if _, found, err := repo.GetImage(ctx, "https://ex.com/a", now); err != nil || found {
		t.Fatalf("GetImage(empty cache) found = %v, err = %v", found, err)
	}

	if err := repo.PutImage(ctx, "https://ex.com/a", "https://ex.com/a.jpg", now.Add(time.Hour)); err != nil {
		t.Fatalf("PutImage() error = %v", err)
	}
	if err := repo.PutImage(ctx, "https://ex.com/b", "", now.Add(time.Hour)); err != nil {
		t.Fatalf("PutImage(negative) error = %v", err)
	}
	if err := repo.PutImage(ctx, "https://ex.com/old", "x", now.Add(-time.Hour)); err != nil {
		t.Fatalf("PutImage(expired) error = %v", err)
	}

	image, found, err := repo.GetImage(ctx, "https://ex.com/a", now)
	if err != nil || !found || image != "https://ex.com/a.jpg" {
		t.Fatalf("GetImage(a) = %q, %v, %v", image, found, err)
	}

	image, found, err = repo.GetImage(ctx, "https://ex.com/b", now)
	if err != nil || !found || image != "" {
		t.Fatalf("GetImage(negative) = %q, %v, %v", image, found, err)
	}

	if _, found, _ := repo.GetImage(ctx, "https://ex.com/old", now); found {
		t.Fatal("expired entry was returned")
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	if err != nil || deleted != 1 {
		t.Fatalf("DeleteExpired() = %d, %v, want 1", deleted, err)
	}
	count, err := repo.CountImages(ctx)
	if err != nil || count != 2 {
		t.Fatalf("CountImages() = %d, %v, want 2", count, err)
	}
}
