package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
)

// MetricsCollector counts what the enrichment pipeline does.
type MetricsCollector struct {
	mu sync.RWMutex

	startTime time.Time

	// page fetches
	fetches        int64
	fetchFailures  int64
	fetchDurations []time.Duration

	// feeds
	feedsOK     int64
	feedsFailed int64

	// articles
	enriched       int64
	imagesByTier   map[string]int64
	imagesMissing  int64
	classifyFailed int64

	// image cache
	cacheHits   int64
	cacheMisses int64

	lastRun time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:      time.Now(),
		fetchDurations: make([]time.Duration, 0, 1000),
		imagesByTier:   make(map[string]int64),
	}
}

// RecordFetch records one article page fetch.
func (m *MetricsCollector) RecordFetch(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++
	if !success {
		m.fetchFailures++
	}

	m.fetchDurations = append(m.fetchDurations, duration)
	if len(m.fetchDurations) > 1000 {
		m.fetchDurations = m.fetchDurations[1:]
	}
}

// RecordFeed records the outcome of one feed.
func (m *MetricsCollector) RecordFeed(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.feedsOK++
	} else {
		m.feedsFailed++
	}
}

// RecordImage records which tier produced an image; an empty tier means none.
func (m *MetricsCollector) RecordImage(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tier == "" {
		m.imagesMissing++
		return
	}
	m.imagesByTier[tier]++
}

// RecordArticle records one enriched article.
func (m *MetricsCollector) RecordArticle(classified bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enriched++
	if !classified {
		m.classifyFailed++
	}
}

// RecordCache records an image cache lookup.
func (m *MetricsCollector) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

// MarkRun stamps the end of an aggregation run.
func (m *MetricsCollector) MarkRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = time.Now()
}

// GetReport returns a consistent copy of all counters.
func (m *MetricsCollector) GetReport() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tiers := make(map[string]int64, len(m.imagesByTier))
	var found int64
	for k, v := range m.imagesByTier {
		tiers[k] = v
		found += v
	}

	return Report{
		StartTime: m.startTime,
		Uptime:    time.Since(m.startTime).Round(time.Second).String(),
		LastRun:   m.lastRun,
		Fetch: FetchStats{
			Total:          m.fetches,
			Failed:         m.fetchFailures,
			SuccessRate:    rate(m.fetches-m.fetchFailures, m.fetches),
			AverageLatency: m.averageFetchDuration().Milliseconds(),
		},
		Feeds: FeedStats{
			OK:     m.feedsOK,
			Failed: m.feedsFailed,
		},
		Articles: ArticleStats{
			Enriched:         m.enriched,
			ImagesFound:      found,
			ImagesMissing:    m.imagesMissing,
			ImagesByTier:     tiers,
			ClassifyFailures: m.classifyFailed,
		},
		Cache: CacheStats{
			Hits:    m.cacheHits,
			Misses:  m.cacheMisses,
			HitRate: rate(m.cacheHits, m.cacheHits+m.cacheMisses),
		},
	}
}

func (m *MetricsCollector) averageFetchDuration() time.Duration {
	if len(m.fetchDurations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range m.fetchDurations {
		total += d
	}
	return total / time.Duration(len(m.fetchDurations))
}

// rate returns part/whole as a percentage, 100 when whole is zero.
func rate(part, whole int64) float64 {
	if whole == 0 {
		return 100.0
	}
	return float64(part) / float64(whole) * 100
}

// Report is a snapshot of the collector.
type Report struct {
	StartTime time.Time    `json:"startTime"`
	Uptime    string       `json:"uptime"`
	LastRun   time.Time    `json:"lastRun"`
	Fetch     FetchStats   `json:"fetch"`
	Feeds     FeedStats    `json:"feeds"`
	Articles  ArticleStats `json:"articles"`
	Cache     CacheStats   `json:"cache"`
}

type FetchStats struct {
	Total          int64   `json:"total"`
	Failed         int64   `json:"failed"`
	SuccessRate    float64 `json:"successRate"`
	AverageLatency int64   `json:"averageLatencyMs"`
}

type FeedStats struct {
	OK     int64 `json:"ok"`
	Failed int64 `json:"failed"`
}

type ArticleStats struct {
	Enriched         int64            `json:"enriched"`
	ImagesFound      int64            `json:"imagesFound"`
	ImagesMissing    int64            `json:"imagesMissing"`
	ImagesByTier     map[string]int64 `json:"imagesByTier"`
	ClassifyFailures int64            `json:"classifyFailures"`
}

type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// WithMetrics times fn as a page fetch.
type WithMetrics func(context.Context, func() error) error

// NewMetricsMiddleware wraps calls so their duration and outcome land in collector.
func NewMetricsMiddleware(collector *MetricsCollector) WithMetrics {
	return func(ctx context.Context, fn func() error) error {
		start := time.Now()
		err := fn()
		collector.RecordFetch(time.Since(start), err == nil)
		return err
	}
}

// LogMetrics writes the current report to the log.
func LogMetrics(metrics *MetricsCollector) {
	report := metrics.GetReport()
	logger.Info("pipeline metrics",
		"uptime", report.Uptime,
		"feeds_ok", report.Feeds.OK,
		"feeds_failed", report.Feeds.Failed,
		"page_fetches", report.Fetch.Total,
		"fetch_success_rate", fmt.Sprintf("%.2f%%", report.Fetch.SuccessRate),
		"fetch_avg_latency", fmt.Sprintf("%dms", report.Fetch.AverageLatency),
		"articles_enriched", report.Articles.Enriched,
		"images_found", report.Articles.ImagesFound,
		"images_missing", report.Articles.ImagesMissing,
		"classify_failures", report.Articles.ClassifyFailures,
		"cache_hit_rate", fmt.Sprintf("%.2f%%", report.Cache.HitRate),
	)
}
