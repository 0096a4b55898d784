package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

// Tier names the extraction step that produced an image.
type Tier string

const (
	TierNone     Tier = ""
	TierMeta     Tier = "meta"
	TierJSONLD   Tier = "jsonld"
	TierContent  Tier = "content"
	TierFallback Tier = "fallback"
	TierFeed     Tier = "feed"
	TierCache    Tier = "cache"
)

// PageFetcher downloads an article page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

var metaImageTags = []string{
	"og:image:secure_url",
	"og:image:url",
	"og:image",
	"twitter:image",
	"twitter:image:src",
}

var contentContainers = []string{
	"article",
	`[itemprop="articleBody"]`,
	".article-body",
	".article-content",
	".entry-content",
	".post-content",
	".post",
	".content",
	"#content",
	"main",
}

// lazy loading attributes are checked before srcset and src
var lazyImageAttrs = []string{"data-src", "data-original", "data-lazy-src"}

// ImageService finds the representative image of an article page.
type ImageService struct {
	fetcher  PageFetcher
	cache    ImageCache
	cacheTTL time.Duration
	metrics  *middleware.MetricsCollector
	log      *logger.ContextLogger
}

// ImageOption configures an ImageService.
type ImageOption func(*ImageService)

// WithImageCache puts cache in front of page fetches.
func WithImageCache(cache ImageCache, ttl time.Duration) ImageOption {
	return func(s *ImageService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithImageMetrics records the tier of every lookup in collector.
func WithImageMetrics(collector *middleware.MetricsCollector) ImageOption {
	return func(s *ImageService) {
		s.metrics = collector
	}
}

func NewImageService(fetcher PageFetcher, opts ...ImageOption) *ImageService {
	s := &ImageService{
		fetcher: fetcher,
		log:     logger.WithContext("image"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractMainImage fetches articleURL and returns its main image. Faults are
// logged and reported as no image.
func (s *ImageService) ExtractMainImage(ctx context.Context, articleURL string) (string, bool) {
	pageURL, ok := ResolveURL(articleURL, "")
	if !ok {
		s.log.Debug("skipping image lookup", "url", articleURL, "reason", "article url is not absolute")
		s.record(TierNone)
		return "", false
	}

	if image, found := s.cached(ctx, pageURL); found {
		return image, image != ""
	}

	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.log.Debug("page fetch failed", "url", pageURL, "reason", err)
		s.record(TierNone)
		return "", false
	}

	image, tier, ok := ExtractFromHTML(bytes.NewReader(body), pageURL)
	if !ok {
		s.log.Debug("no image found", "url", pageURL)
	}
	s.record(tier)
	s.store(ctx, pageURL, image)
	return image, ok
}

func (s *ImageService) cached(ctx context.Context, pageURL string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	image, found, err := s.cache.Get(ctx, pageURL)
	if err != nil {
		s.log.Warn("image cache lookup failed", "url", pageURL, "error", err)
		return "", false
	}
	if s.metrics != nil {
		s.metrics.RecordCache(found)
	}
	if found {
		if image == "" {
			s.record(TierNone)
		} else {
			s.record(TierCache)
		}
	}
	return image, found
}

func (s *ImageService) store(ctx context.Context, pageURL, image string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, pageURL, image, s.cacheTTL); err != nil {
		s.log.Warn("image cache write failed", "url", pageURL, "error", err)
	}
}

func (s *ImageService) record(tier Tier) {
	if s.metrics != nil {
		s.metrics.RecordImage(string(tier))
	}
}

// ExtractFromHTML runs the extraction tiers over an already fetched page.
// Relative references are resolved against base.
func ExtractFromHTML(r io.Reader, base string) (string, Tier, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		logger.Debug("html parse failed", "url", base, "error", err)
		return "", TierNone, false
	}

	if image, ok := metaImage(doc, base); ok {
		return image, TierMeta, true
	}
	if image, ok := jsonLDImage(doc, base); ok {
		return image, TierJSONLD, true
	}
	if image, ok := contentImage(doc, base); ok {
		return image, TierContent, true
	}
	if image, ok := fallbackImage(doc, base); ok {
		return image, TierFallback, true
	}
	return "", TierNone, false
}

func metaImage(doc *goquery.Document, base string) (string, bool) {
	for _, name := range metaImageTags {
		sel := doc.Find(`meta[property="` + name + `"], meta[name="` + name + `"]`).First()
		if sel.Length() == 0 {
			continue
		}
		content, _ := sel.Attr("content")
		if image, ok := ResolveURL(content, base); ok {
			return image, true
		}
	}
	return "", false
}

func jsonLDImage(doc *goquery.Document, base string) (string, bool) {
	var (
		image string
		found bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		root, err := decodeLD(sel.Text())
		if err != nil {
			logger.Debug("skipping malformed json-ld block", "url", base, "index", i, "error", err)
			return true
		}
		for _, ref := range collectLDImages(root) {
			if image, found = ResolveURL(ref, base); found {
				return false
			}
		}
		return true
	})
	return image, found
}

// contentImage probes the first <img> of the first container that matches.
// A matching container without an image ends the tier.
func contentImage(doc *goquery.Document, base string) (string, bool) {
	for _, selector := range contentContainers {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		img := container.Find("img").First()
		if img.Length() == 0 {
			return "", false
		}
		return probeImage(img, base)
	}
	return "", false
}

func fallbackImage(doc *goquery.Document, base string) (string, bool) {
	img := doc.Find("img").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.TrimSpace(sel.AttrOr("src", "")) != "" ||
			strings.TrimSpace(sel.AttrOr("srcset", "")) != ""
	}).First()
	if img.Length() == 0 {
		return "", false
	}
	return probeImage(img, base)
}

// probeImage reads the lazy loading attributes, then srcset, then src.
func probeImage(img *goquery.Selection, base string) (string, bool) {
	for _, attr := range lazyImageAttrs {
		if value, ok := img.Attr(attr); ok {
			if image, ok := ResolveURL(value, base); ok {
				return image, true
			}
		}
	}
	if srcset, ok := img.Attr("srcset"); ok {
		if image, ok := SelectBestFromSrcset(srcset, base); ok {
			return image, true
		}
	}
	if src, ok := img.Attr("src"); ok {
		return ResolveURL(src, base)
	}
	return "", false
}
