package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wolfitem/news-enricher/internal/domain/model"
)

var defaultFeeds = []string{
	"http://feeds.bbci.co.uk/news/world/rss.xml",
	"https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
	"https://www.lemonde.fr/rss/une.xml",
	"https://www.rfi.fr/fr/rss",
	"https://feeds.a.dj.com/rss/RSSWorldNews.xml",
}

func registerDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.console", true)
	viper.SetDefault("logger.file_path", "logs/news-enricher.log")
	viper.SetDefault("logger.max_size", 100)
	viper.SetDefault("logger.max_backups", 3)
	viper.SetDefault("logger.max_age", 28)

	viper.SetDefault("rss.max_items_per_feed", 15)
	viper.SetDefault("rss.timeout", "15s")
	viper.SetDefault("rss.max_retries", 3)
	viper.SetDefault("rss.retry_backoff", "1s")
	viper.SetDefault("rss.concurrency", 3)
	viper.SetDefault("rss.allow_private", false)

	viper.SetDefault("scrape.enabled", true)
	viper.SetDefault("scrape.timeout", "5s")
	viper.SetDefault("scrape.concurrency", 5)
	viper.SetDefault("scrape.max_body_bytes", 4<<20)
	viper.SetDefault("scrape.prefer_feed_image", false)
	viper.SetDefault("scrape.max_page_fetches", 0)
	viper.SetDefault("scrape.fetch_window", "1m")

	viper.SetDefault("classifier.kind", "keyword")
	viper.SetDefault("classifier.fallback_category", "general")

	viper.SetDefault("cache.backend", "none")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.redis_addr", "localhost:6379")

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.file_path", "data/news.db")

	viper.SetDefault("server.addr", ":3000")
	viper.SetDefault("server.refresh_cron", "")
	viper.SetDefault("server.snapshot_ttl", "10m")
	viper.SetDefault("server.memstats_interval", "5m")
}

// loadFeeds reads rss.feeds, a list of urls or of {title, url} maps. Without
// feeds and without an OPML file the built-in list is used.
func loadFeeds() ([]model.FeedSource, error) {
	raw := viper.Get("rss.feeds")
	if raw == nil {
		if viper.GetString("rss.opml_file") != "" {
			return nil, nil
		}
		sources := make([]model.FeedSource, len(defaultFeeds))
		for i, u := range defaultFeeds {
			sources[i] = model.FeedSource{XMLURL: u}
		}
		return sources, nil
	}

	// RSS_FEEDS from the environment is a space or comma separated list
	if s, ok := raw.(string); ok {
		var sources []model.FeedSource
		for _, u := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			sources = append(sources, model.FeedSource{XMLURL: u})
		}
		return sources, nil
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("rss.feeds must be a list, got %T", raw)
	}

	sources := make([]model.FeedSource, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			sources = append(sources, model.FeedSource{XMLURL: v})
		case map[string]interface{}:
			title, _ := v["title"].(string)
			u, _ := v["url"].(string)
			if u == "" {
				return nil, fmt.Errorf("rss.feeds[%d] has no url", i)
			}
			sources = append(sources, model.FeedSource{Title: title, XMLURL: u})
		default:
			return nil, fmt.Errorf("rss.feeds[%d]: unsupported entry %T", i, item)
		}
	}
	return sources, nil
}

func loadRssConfig() (model.RssConfig, error) {
	feeds, err := loadFeeds()
	if err != nil {
		return model.RssConfig{}, err
	}

	return model.RssConfig{
		Feeds:           feeds,
		OpmlFile:        viper.GetString("rss.opml_file"),
		MaxItemsPerFeed: viper.GetInt("rss.max_items_per_feed"),
		Timeout:         viper.GetDuration("rss.timeout"),
		MaxRetries:      viper.GetInt("rss.max_retries"),
		RetryBackoff:    viper.GetDuration("rss.retry_backoff"),
		Concurrency:     viper.GetInt("rss.concurrency"),
	}, nil
}

func loadScrapeConfig() model.ScrapeConfig {
	return model.ScrapeConfig{
		Enabled:         viper.GetBool("scrape.enabled"),
		Timeout:         viper.GetDuration("scrape.timeout"),
		UserAgent:       viper.GetString("scrape.user_agent"),
		AcceptLanguage:  viper.GetString("scrape.accept_language"),
		Concurrency:     viper.GetInt("scrape.concurrency"),
		MaxBodyBytes:    viper.GetInt64("scrape.max_body_bytes"),
		PreferFeedImage: viper.GetBool("scrape.prefer_feed_image"),
		MaxPageFetches:  viper.GetInt64("scrape.max_page_fetches"),
		FetchWindow:     viper.GetDuration("scrape.fetch_window"),
	}
}

func loadClassifierConfig() model.ClassifierConfig {
	return model.ClassifierConfig{
		Kind:             viper.GetString("classifier.kind"),
		KeywordsFile:     viper.GetString("classifier.keywords_file"),
		TrainingFile:     viper.GetString("classifier.training_file"),
		FallbackCategory: viper.GetString("classifier.fallback_category"),
	}
}

func loadCacheConfig() model.CacheConfig {
	return model.CacheConfig{
		Backend:       viper.GetString("cache.backend"),
		TTL:           viper.GetDuration("cache.ttl"),
		RedisAddr:     viper.GetString("cache.redis_addr"),
		RedisPassword: viper.GetString("cache.redis_password"),
		RedisDB:       viper.GetInt("cache.redis_db"),
	}
}

func loadDatabaseConfig() model.DatabaseConfig {
	return model.DatabaseConfig{
		Enabled:  viper.GetBool("database.enabled"),
		FilePath: viper.GetString("database.file_path"),
	}
}

func loadServerConfig() model.ServerConfig {
	return model.ServerConfig{
		Addr:        viper.GetString("server.addr"),
		RefreshCron: viper.GetString("server.refresh_cron"),
		SnapshotTTL: viper.GetDuration("server.snapshot_ttl"),
	}
}

func memStatsInterval() time.Duration {
	return viper.GetDuration("server.memstats_interval")
}
