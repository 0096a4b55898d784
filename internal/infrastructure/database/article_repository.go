package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
)

var articleColumns = []string{
	"link", "title", "summary", "source", "image",
	"category", "confidence", "explanation", "pub_date",
}

// ArticleRepository archives enriched articles.
type ArticleRepository interface {
	// SaveArticle inserts the article or refreshes the stored copy with the same link.
	SaveArticle(ctx context.Context, article model.ArticleRecord) error
	ArticleExists(ctx context.Context, link string) (bool, error)
	// GetArticleByLink returns nil when the link is unknown.
	GetArticleByLink(ctx context.Context, link string) (*model.ArticleRecord, error)
	// ListArticles returns the newest articles first, optionally limited to one category.
	ListArticles(ctx context.Context, category string, limit int) ([]model.ArticleRecord, error)
	CountArticles(ctx context.Context) (int64, error)
}

type SQLiteArticleRepository struct {
	db Database
}

func NewSQLiteArticleRepository(db Database) ArticleRepository {
	return &SQLiteArticleRepository{
		db: db,
	}
}

func (r *SQLiteArticleRepository) SaveArticle(ctx context.Context, article model.ArticleRecord) error {
	logger.Debug("archiving article", "title", article.Title, "link", article.Link)

	var image interface{}
	if article.Image != nil {
		image = *article.Image
	}

	query, args, err := sq.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.Link, article.Title, article.Summary, article.SourceName, image,
			article.Category, article.Confidence, article.Explanation, article.PublishDate.Unix(),
		).
		Suffix(`ON CONFLICT(link) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			source = excluded.source,
			image = excluded.image,
			category = excluded.category,
			confidence = excluded.confidence,
			explanation = excluded.explanation,
			pub_date = excluded.pub_date`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		logger.Error("archiving article failed", "link", article.Link, "error", err)
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

func (r *SQLiteArticleRepository) ArticleExists(ctx context.Context, link string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("articles").Where(sq.Eq{"link": link}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query article: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteArticleRepository) GetArticleByLink(ctx context.Context, link string) (*model.ArticleRecord, error) {
	query, args, err := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"link": link}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &article, nil
}

func (r *SQLiteArticleRepository) ListArticles(ctx context.Context, category string, limit int) ([]model.ArticleRecord, error) {
	builder := sq.Select(articleColumns...).From("articles").OrderBy("pub_date DESC", "id ASC")
	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []model.ArticleRecord{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (r *SQLiteArticleRepository) CountArticles(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From("articles").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (model.ArticleRecord, error) {
	var (
		article model.ArticleRecord
		image   sql.NullString
		pubDate int64
	)
	err := row.Scan(
		&article.Link, &article.Title, &article.Summary, &article.SourceName, &image,
		&article.Category, &article.Confidence, &article.Explanation, &pubDate,
	)
	if err != nil {
		return model.ArticleRecord{}, err
	}

	if image.Valid {
		article.Image = &image.String
	}
	article.PublishDate = time.Unix(pubDate, 0).UTC()
	return article, nil
}
