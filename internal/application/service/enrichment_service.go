package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfitem/news-enricher/internal/domain/classifier"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/domain/service"
	"github.com/wolfitem/news-enricher/internal/infrastructure/database"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

const (
	DefaultFallbackCategory = "general"
	untitled                = "Untitled"
	noSummary               = "No summary available"
	defaultEstimateSeconds  = 10
)

// ImageExtractor finds the main image of an article page.
type ImageExtractor interface {
	ExtractMainImage(ctx context.Context, articleURL string) (string, bool)
}

// Dependencies are the collaborators of an EnrichmentService. Images,
// Archive and Metrics are optional.
type Dependencies struct {
	Feeds      service.FeedFetcher
	Images     ImageExtractor
	Classifier classifier.Classifier
	Archive    database.ArticleRepository
	Metrics    *middleware.MetricsCollector
}

// Options tune an EnrichmentService.
type Options struct {
	Sources          []model.FeedSource
	FeedConcurrency  int
	ItemConcurrency  int
	ScrapeImages     bool
	PreferFeedImage  bool
	FallbackCategory string
	// SnapshotTTL is how long ListArticles serves the last aggregation; 0
	// rebuilds on every call.
	SnapshotTTL time.Duration
}

// EnrichmentService turns feed items into classified articles with images.
type EnrichmentService struct {
	deps Dependencies
	opts Options
	now  func() time.Time
	log  *logger.ContextLogger

	refreshMu  sync.Mutex
	mu         sync.RWMutex
	snapshot   []model.ArticleRecord
	snapshotAt time.Time
}

func NewEnrichmentService(deps Dependencies, opts Options) *EnrichmentService {
	if opts.FeedConcurrency <= 0 {
		opts.FeedConcurrency = 3
	}
	if opts.ItemConcurrency <= 0 {
		opts.ItemConcurrency = 5
	}
	if opts.FallbackCategory == "" {
		opts.FallbackCategory = DefaultFallbackCategory
	}

	return &EnrichmentService{
		deps: deps,
		opts: opts,
		now:  time.Now,
		log:  logger.WithContext("enrichment"),
	}
}

// Sources returns the configured feeds.
func (s *EnrichmentService) Sources() []model.FeedSource {
	return s.opts.Sources
}

// EnrichItem builds the article record for one feed item. It reports false
// only when the item has no link; every other fault is absorbed.
func (s *EnrichmentService) EnrichItem(ctx context.Context, item model.FeedItem, sourceName string) (model.ArticleRecord, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		s.log.Debug("skipping item without link", "title", item.Title, "source", sourceName)
		return model.ArticleRecord{}, false
	}

	record := model.ArticleRecord{
		Title:       strings.TrimSpace(item.Title),
		Link:        link,
		PublishDate: item.PublishDate,
		Summary:     summaryOf(item),
		SourceName:  sourceName,
	}
	if record.Title == "" {
		record.Title = untitled
	}
	if record.PublishDate.IsZero() {
		record.PublishDate = s.now()
	}

	if image, ok := s.imageFor(ctx, item, link); ok {
		record.Image = &image
	}

	s.classify(&record)
	return record, true
}

// summaryOf picks the snippet, then the stripped content, then the title.
func summaryOf(item model.FeedItem) string {
	if snippet := strings.TrimSpace(item.Snippet); snippet != "" {
		return snippet
	}
	if content := service.StripHTML(item.Content); content != "" {
		return content
	}
	if title := strings.TrimSpace(item.Title); title != "" {
		return title
	}
	return noSummary
}

func (s *EnrichmentService) imageFor(ctx context.Context, item model.FeedItem, link string) (string, bool) {
	if s.opts.PreferFeedImage && item.FeedImage != "" {
		if image, ok := service.ResolveURL(item.FeedImage, link); ok {
			if s.deps.Metrics != nil {
				s.deps.Metrics.RecordImage(string(service.TierFeed))
			}
			return image, true
		}
	}

	if !s.opts.ScrapeImages || s.deps.Images == nil {
		return "", false
	}
	return s.deps.Images.ExtractMainImage(ctx, link)
}

func (s *EnrichmentService) classify(record *model.ArticleRecord) {
	result, err := s.deps.Classifier.Classify(record.Title + " " + record.Summary)
	if err != nil {
		record.Category = s.opts.FallbackCategory
		record.Confidence = 0
		if errors.Is(err, classifier.ErrNotTrained) {
			record.Explanation = "classifier not trained"
		} else {
			record.Explanation = "classification failed: " + err.Error()
		}
		s.log.Warn("classification failed", "link", record.Link, "error", err)
	} else {
		record.Category = result.Category
		record.Confidence = result.Confidence
		record.Explanation = result.Explanation
		record.ClassifierScores = result.Scores
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordArticle(err == nil)
	}
}

// EnrichFeed fetches one feed and enriches its items in feed order. A feed
// that cannot be read yields an empty slice.
func (s *EnrichmentService) EnrichFeed(ctx context.Context, source model.FeedSource) []model.ArticleRecord {
	result, err := s.deps.Feeds.FetchFeed(ctx, source)
	if err != nil {
		s.log.Warn("feed failed", "title", source.Title, "url", source.XMLURL, "error", err)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordFeed(false)
		}
		return []model.ArticleRecord{}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordFeed(true)
	}

	items := result.Items
	type itemTask struct {
		item  model.FeedItem
		index int
	}
	type itemResult struct {
		record model.ArticleRecord
		index  int
		ok     bool
	}

	workers := s.opts.ItemConcurrency
	if workers > len(items) {
		workers = len(items)
	}

	workChan := make(chan itemTask, len(items))
	resultChan := make(chan itemResult, len(items))

	for i := 0; i < workers; i++ {
		go func() {
			for task := range workChan {
				record, ok := s.EnrichItem(ctx, task.item, result.SourceName)
				resultChan <- itemResult{record: record, index: task.index, ok: ok}
			}
		}()
	}

	for i, item := range items {
		workChan <- itemTask{item: item, index: i}
	}
	close(workChan)

	ordered := make([]*model.ArticleRecord, len(items))
	for range items {
		r := <-resultChan
		if r.ok {
			record := r.record
			ordered[r.index] = &record
		}
	}

	records := make([]model.ArticleRecord, 0, len(items))
	for _, r := range ordered {
		if r != nil {
			records = append(records, *r)
		}
	}

	s.log.Debug("feed enriched", "source", result.SourceName, "items", len(items), "articles", len(records))
	return records
}

// ListArticles returns every article of every feed, newest first. A
// snapshot younger than SnapshotTTL is served as is.
func (s *EnrichmentService) ListArticles(ctx context.Context) ([]model.ArticleRecord, error) {
	if articles, ok := s.freshSnapshot(); ok {
		return articles, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have rebuilt while we waited
	if articles, ok := s.freshSnapshot(); ok {
		return articles, nil
	}
	return s.rebuild(ctx)
}

// Refresh rebuilds the snapshot regardless of its age.
func (s *EnrichmentService) Refresh(ctx context.Context) ([]model.ArticleRecord, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.rebuild(ctx)
}

func (s *EnrichmentService) freshSnapshot() ([]model.ArticleRecord, bool) {
	if s.opts.SnapshotTTL <= 0 {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil || s.now().Sub(s.snapshotAt) >= s.opts.SnapshotTTL {
		return nil, false
	}
	return cloneRecords(s.snapshot), true
}

func (s *EnrichmentService) rebuild(ctx context.Context) ([]model.ArticleRecord, error) {
	defer logger.TimeTrack("ListArticles")()

	perFeed := make([][]model.ArticleRecord, len(s.opts.Sources))

	var g errgroup.Group
	g.SetLimit(s.opts.FeedConcurrency)
	for i, source := range s.opts.Sources {
		i, source := i, source
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			perFeed[i] = s.EnrichFeed(ctx, source)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	articles := []model.ArticleRecord{}
	for _, records := range perFeed {
		articles = append(articles, records...)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishDate.After(articles[j].PublishDate)
	})

	s.archive(ctx, articles)

	s.mu.Lock()
	s.snapshot = articles
	s.snapshotAt = s.now()
	s.mu.Unlock()

	if s.deps.Metrics != nil {
		s.deps.Metrics.MarkRun()
	}
	s.log.Info("articles aggregated", "feeds", len(s.opts.Sources), "articles", len(articles))
	return cloneRecords(articles), nil
}

func (s *EnrichmentService) archive(ctx context.Context, articles []model.ArticleRecord) {
	if s.deps.Archive == nil {
		return
	}

	failed := 0
	for _, a := range articles {
		if err := s.deps.Archive.SaveArticle(ctx, a); err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warn("some articles were not archived", "failed", failed, "total", len(articles))
	}
}

// ArticlesByCategory filters ListArticles on category, ignoring case.
func (s *EnrichmentService) ArticlesByCategory(ctx context.Context, category string) ([]model.ArticleRecord, error) {
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return nil, err
	}

	filtered := []model.ArticleRecord{}
	for _, a := range articles {
		if strings.EqualFold(a.Category, category) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// ArchivedArticles reads the sqlite archive; it is empty when archiving is off.
func (s *EnrichmentService) ArchivedArticles(ctx context.Context, category string, limit int) ([]model.ArticleRecord, error) {
	if s.deps.Archive == nil {
		return []model.ArticleRecord{}, nil
	}
	return s.deps.Archive.ListArticles(ctx, category, limit)
}

// Classify runs the classifier on free text.
func (s *EnrichmentService) Classify(text string) (classifier.Result, error) {
	return s.deps.Classifier.Classify(text)
}

func (s *EnrichmentService) ClassifierStats() classifier.Stats {
	return s.deps.Classifier.Stats()
}

// Estimate times one fetch of the first feed and extrapolates, in seconds, how
// long a full aggregation takes. It falls back to 10 seconds.
func (s *EnrichmentService) Estimate(ctx context.Context) int {
	if len(s.opts.Sources) == 0 {
		return defaultEstimateSeconds
	}

	start := time.Now()
	if _, err := s.deps.Feeds.FetchFeed(ctx, s.opts.Sources[0]); err != nil {
		s.log.Debug("estimate probe failed", "url", s.opts.Sources[0].XMLURL, "error", err)
		return defaultEstimateSeconds
	}
	elapsed := time.Since(start).Seconds()

	return int(math.Ceil(elapsed * float64(len(s.opts.Sources)) * 2))
}

func cloneRecords(records []model.ArticleRecord) []model.ArticleRecord {
	out := make([]model.ArticleRecord, len(records))
	copy(out, records)
	return out
}
