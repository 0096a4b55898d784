package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	appservice "github.com/wolfitem/news-enricher/internal/application/service"
	"github.com/wolfitem/news-enricher/internal/domain/classifier"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/domain/service"
	"github.com/wolfitem/news-enricher/internal/infrastructure/cache"
	"github.com/wolfitem/news-enricher/internal/infrastructure/database"
	"github.com/wolfitem/news-enricher/internal/infrastructure/fetcher"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

// application holds the wired pipeline shared by serve and fetch.
type application struct {
	enrichment  *appservice.EnrichmentService
	metrics     *middleware.MetricsCollector
	sqliteCache *service.SQLiteImageCache
	closers     []func() error
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("closing resource failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context) (*application, error) {
	rssCfg, err := loadRssConfig()
	if err != nil {
		return nil, err
	}
	scrapeCfg := loadScrapeConfig()
	cacheCfg := loadCacheConfig()
	dbCfg := loadDatabaseConfig()
	serverCfg := loadServerConfig()
	validator := service.NewValidator(viper.GetBool("rss.allow_private"))

	userAgent := scrapeCfg.UserAgent
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	rss := service.NewRssService(rssCfg, userAgent)

	sources, err := collectSources(rss, validator, rssCfg)
	if err != nil {
		return nil, err
	}

	app := &application{metrics: middleware.NewMetricsCollector()}

	var db database.Database
	if dbCfg.Enabled || strings.EqualFold(cacheCfg.Backend, "sqlite") {
		db = database.NewSQLiteDatabase(dbCfg.FilePath)
		if err := db.Init(); err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		app.closers = append(app.closers, db.Close)
	}

	var archive database.ArticleRepository
	if dbCfg.Enabled {
		archive = database.NewSQLiteArticleRepository(db)
	}

	imageCache, err := app.buildImageCache(ctx, cacheCfg, db)
	if err != nil {
		app.Close()
		return nil, err
	}

	imageOpts := []service.ImageOption{service.WithImageMetrics(app.metrics)}
	if imageCache != nil {
		imageOpts = append(imageOpts, service.WithImageCache(imageCache, cacheCfg.TTL))
	}
	pages := fetcher.NewHTTPFetcher(scrapeCfg, fetcher.WithMetrics(app.metrics))
	images := service.NewImageService(pages, imageOpts...)

	clfCfg := loadClassifierConfig()
	clf, err := buildClassifier(validator, clfCfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.enrichment = appservice.NewEnrichmentService(appservice.Dependencies{
		Feeds:      rss,
		Images:     images,
		Classifier: clf,
		Archive:    archive,
		Metrics:    app.metrics,
	}, appservice.Options{
		Sources:          sources,
		FeedConcurrency:  rssCfg.Concurrency,
		ItemConcurrency:  scrapeCfg.Concurrency,
		ScrapeImages:     scrapeCfg.Enabled,
		PreferFeedImage:  scrapeCfg.PreferFeedImage,
		FallbackCategory: clfCfg.FallbackCategory,
		SnapshotTTL:      serverCfg.SnapshotTTL,
	})

	logger.Info("pipeline ready",
		"feeds", len(sources),
		"classifier", clf.Kind(),
		"cache", cacheCfg.Backend,
		"archive", dbCfg.Enabled,
	)
	return app, nil
}

// collectSources merges configured feeds with the OPML file and drops invalid urls.
func collectSources(rss service.RssService, validator *service.Validator, cfg model.RssConfig) ([]model.FeedSource, error) {
	sources := append([]model.FeedSource(nil), cfg.Feeds...)

	if cfg.OpmlFile != "" {
		if err := validator.ValidateFilePath(cfg.OpmlFile, ".opml", ".xml"); err != nil {
			return nil, fmt.Errorf("opml file: %w", err)
		}
		fromOpml, err := rss.ParseOpml(cfg.OpmlFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromOpml...)
	}

	sources = validator.FilterFeeds(sources)
	if len(sources) == 0 {
		return nil, errors.New("no usable feeds configured")
	}
	return sources, nil
}

func (a *application) buildImageCache(ctx context.Context, cfg model.CacheConfig, db database.Database) (service.ImageCache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "sqlite":
		a.sqliteCache = service.NewSQLiteImageCache(db)
		if err := a.sqliteCache.CleanExpiredItems(ctx); err != nil {
			logger.Warn("cleaning image cache failed", "error", err)
		}
		return a.sqliteCache, nil
	case "redis":
		rc, err := cache.NewRedisImageCache(cfg)
		if err != nil {
			logger.Warn("redis unavailable, image cache disabled", "addr", cfg.RedisAddr, "error", err)
			return nil, nil
		}
		a.closers = append(a.closers, rc.Close)
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// buildClassifier creates the configured classifier and trains it when it
// learns from a corpus.
func buildClassifier(validator *service.Validator, cfg model.ClassifierConfig) (classifier.Classifier, error) {
	clfCfg := classifier.Config{Kind: classifier.Kind(strings.ToLower(cfg.Kind))}

	if cfg.KeywordsFile != "" {
		if err := validator.ValidateFilePath(cfg.KeywordsFile, ".yaml", ".yml"); err != nil {
			return nil, fmt.Errorf("keywords file: %w", err)
		}
		table, err := classifier.LoadKeywordsFile(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		clfCfg.Keywords = table
	}

	clf, err := classifier.New(clfCfg)
	if err != nil {
		return nil, err
	}

	trainer, ok := clf.(classifier.Trainer)
	if !ok {
		return clf, nil
	}
	if cfg.TrainingFile == "" {
		logger.Warn("classifier has no training file, articles will use the fallback category", "kind", clf.Kind())
		return clf, nil
	}
	if err := validator.ValidateFilePath(cfg.TrainingFile, ".csv"); err != nil {
		return nil, fmt.Errorf("training file: %w", err)
	}

	samples, malformed, err := classifier.LoadCorpusFile(cfg.TrainingFile)
	if err != nil {
		return nil, err
	}
	report, err := trainer.Train(samples)
	if errors.Is(err, classifier.ErrEmptyCorpus) {
		logger.Warn("training corpus is empty, classifier stays untrained", "file", cfg.TrainingFile, "malformed", malformed)
		return clf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	logger.Info("classifier trained",
		"documents", report.Documents,
		"skipped", report.Skipped+malformed,
		"vocabulary", report.VocabularySize,
		"categories", report.Categories,
	)
	return clf, nil
}
