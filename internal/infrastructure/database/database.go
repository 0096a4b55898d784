package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
)

// Database is the subset of *sql.DB the repositories use.
type Database interface {
	// Init opens the connection and creates missing tables.
	Init() error
	Close() error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLiteDatabase stores the article archive and the image cache in one file.
type SQLiteDatabase struct {
	db         *sql.DB
	dbFilePath string
}

func NewSQLiteDatabase(dbFilePath string) Database {
	return &SQLiteDatabase{
		dbFilePath: dbFilePath,
	}
}

func (s *SQLiteDatabase) Init() error {
	logger.Info("opening sqlite database", "db_path", s.dbFilePath)

	dbDir := filepath.Dir(s.dbFilePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("creating database directory failed", "error", err)
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbFilePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	s.db = db

	if err := db.Ping(); err != nil {
		logger.Error("database ping failed", "error", err)
		return fmt.Errorf("ping database: %w", err)
	}

	if err := s.createTables(); err != nil {
		logger.Error("creating tables failed", "error", err)
		return fmt.Errorf("create tables: %w", err)
	}

	logger.Info("sqlite database ready")
	return nil
}

func (s *SQLiteDatabase) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		source TEXT NOT NULL,
		image TEXT,
		category TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		explanation TEXT NOT NULL DEFAULT '',
		pub_date INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS image_cache (
		page_url TEXT PRIMARY KEY,
		image TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		logger.Info("closing sqlite database")
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLiteDatabase) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *SQLiteDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}
