package model

import "time"

// RssConfig controls how feeds are fetched.
type RssConfig struct {
	Feeds           []FeedSource  // feeds listed directly in the config file
	OpmlFile        string        // optional OPML file with more feeds
	MaxItemsPerFeed int           // items kept per feed
	Timeout         time.Duration // per feed request timeout
	MaxRetries      int           // attempts per feed
	RetryBackoff    time.Duration // base delay between attempts
	Concurrency     int           // feeds fetched in parallel
}

// ScrapeConfig controls main image extraction.
type ScrapeConfig struct {
	Enabled         bool
	Timeout         time.Duration // per page fetch timeout
	UserAgent       string
	AcceptLanguage  string
	Concurrency     int   // article pages fetched in parallel within one feed
	MaxBodyBytes    int64 // page body read limit
	PreferFeedImage bool  // use the image the feed already carries when it resolves
	MaxPageFetches  int64 // fetch budget per FetchWindow, 0 disables the limit
	FetchWindow     time.Duration
}

// ClassifierConfig selects and feeds the classification engine.
type ClassifierConfig struct {
	Kind             string // keyword | bayes
	KeywordsFile     string // optional YAML keyword table
	TrainingFile     string // CSV corpus for bayes
	FallbackCategory string // used when classification fails
}

// CacheConfig selects the image cache backend.
type CacheConfig struct {
	Backend       string // none | sqlite | redis
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DatabaseConfig controls the sqlite archive and cache file.
type DatabaseConfig struct {
	Enabled  bool   // archive enriched articles
	FilePath string // sqlite file
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string
	RefreshCron string        // cron spec for snapshot refresh, empty disables
	SnapshotTTL time.Duration // how long a snapshot is served before rebuilding on demand
}
