package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ImageRepository stores the outcome of main image lookups. An empty image
// records a page that has none.
type ImageRepository interface {
	GetImage(ctx context.Context, pageURL string, now time.Time) (image string, found bool, err error)
	PutImage(ctx context.Context, pageURL, image string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountImages(ctx context.Context) (int64, error)
}

type SQLiteImageRepository struct {
	db Database
}

func NewSQLiteImageRepository(db Database) ImageRepository {
	return &SQLiteImageRepository{db: db}
}

func (r *SQLiteImageRepository) GetImage(ctx context.Context, pageURL string, now time.Time) (string, bool, error) {
	query, args, err := sq.Select("image").
		From("image_cache").
		Where(sq.Eq{"page_url": pageURL}).
		Where(sq.Gt{"expires_at": now.Unix()}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var image string
	err = r.db.QueryRow(ctx, query, args...).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached image: %w", err)
	}
	return image, true, nil
}

func (r *SQLiteImageRepository) PutImage(ctx context.Context, pageURL, image string, expiresAt time.Time) error {
	query, args, err := sq.Insert("image_cache").
		Columns("page_url", "image", "expires_at").
		Values(pageURL, image, expiresAt.Unix()).
		Suffix("ON CONFLICT(page_url) DO UPDATE SET image = excluded.image, expires_at = excluded.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("cache image: %w", err)
	}
	return nil
}

func (r *SQLiteImageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := sq.Delete("image_cache").Where(sq.LtOrEq{"expires_at": now.Unix()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired images: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteImageRepository) CountImages(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From("image_cache").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}
