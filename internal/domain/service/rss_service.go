package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gilliek/go-opml/opml"
	"github.com/mmcdole/gofeed"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

// FeedFetcher reads one feed.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, source model.FeedSource) (model.FeedResult, error)
}

// RssService reads feed lists and feeds.
type RssService interface {
	FeedFetcher

	// ParseOpml returns every feed listed in an OPML file, nested outlines included.
	ParseOpml(opmlFilePath string) ([]model.FeedSource, error)
}

type rssService struct {
	client    *http.Client
	config    model.RssConfig
	userAgent string
}

func NewRssService(config model.RssConfig, userAgent string) RssService {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}

	return &rssService{
		client:    &http.Client{Timeout: config.Timeout},
		config:    config,
		userAgent: userAgent,
	}
}

func (s *rssService) ParseOpml(opmlFilePath string) ([]model.FeedSource, error) {
	logger.Info("parsing opml file", "file", opmlFilePath)
	defer logger.TimeTrack("ParseOpml")()

	doc, err := opml.NewOPMLFromFile(opmlFilePath)
	if err != nil {
		logger.Error("parsing opml file failed", "file", opmlFilePath, "error", err)
		return nil, fmt.Errorf("parse opml: %w", err)
	}

	var sources []model.FeedSource
	for _, outline := range doc.Outlines() {
		sources = append(sources, extractSources(outline)...)
	}

	logger.Info("opml file parsed", "file", opmlFilePath, "sources_count", len(sources))
	return sources, nil
}

func extractSources(outline opml.Outline) []model.FeedSource {
	var sources []model.FeedSource

	if outline.XMLURL != "" {
		title := outline.Title
		if title == "" {
			title = outline.Text
		}
		sources = append(sources, model.FeedSource{
			Title:  title,
			XMLURL: outline.XMLURL,
		})
	}

	for _, child := range outline.Outlines {
		sources = append(sources, extractSources(child)...)
	}

	return sources
}

// FetchFeed downloads and parses one feed, retrying transient failures.
func (s *rssService) FetchFeed(ctx context.Context, source model.FeedSource) (model.FeedResult, error) {
	logger.Debug("fetching feed", "title", source.Title, "url", source.XMLURL)

	var feed *gofeed.Feed
	attempt := 0
	err := middleware.RetryWithBackoff(ctx, s.config.MaxRetries, s.config.RetryBackoff, func() error {
		attempt++
		f, err := s.fetchOnce(ctx, source.XMLURL)
		if err != nil {
			logger.Warn("feed attempt failed", "title", source.Title, "url", source.XMLURL, "attempt", attempt, "error", err)
			return err
		}
		feed = f
		return nil
	})
	if err != nil {
		return model.FeedResult{}, fmt.Errorf("fetch feed %s: %w", source.XMLURL, err)
	}

	result := model.FeedResult{SourceName: sourceName(feed, source)}
	for _, item := range feed.Items {
		if s.config.MaxItemsPerFeed > 0 && len(result.Items) >= s.config.MaxItemsPerFeed {
			break
		}
		result.Items = append(result.Items, toFeedItem(item))
	}

	logger.Debug("feed fetched", "title", result.SourceName, "items", len(result.Items))
	return result, nil
}

func (s *rssService) fetchOnce(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("closing response body failed", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if feed == nil {
		return nil, errors.New("empty feed")
	}
	return feed, nil
}

func sourceName(feed *gofeed.Feed, source model.FeedSource) string {
	if name := strings.TrimSpace(feed.Title); name != "" {
		return name
	}
	if name := strings.TrimSpace(source.Title); name != "" {
		return name
	}
	return "Unknown source"
}

func toFeedItem(item *gofeed.Item) model.FeedItem {
	fi := model.FeedItem{
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Snippet:   stripHTMLTags(item.Description),
		Content:   item.Content,
		FeedImage: feedImage(item),
	}
	if fi.Link == "" && len(item.Links) > 0 {
		fi.Link = strings.TrimSpace(item.Links[0])
	}
	if fi.Content == "" {
		fi.Content = item.Description
	}
	if fi.Snippet == "" {
		fi.Snippet = stripHTMLTags(item.Content)
	}

	if item.PublishedParsed != nil {
		fi.PublishDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		fi.PublishDate = *item.UpdatedParsed
	}
	return fi
}

// feedImage returns the image the feed advertises for an item: its image
// element, an image enclosure or a media:content / media:thumbnail entry.
func feedImage(item *gofeed.Item) string {
	if item.Image != nil && strings.TrimSpace(item.Image.URL) != "" {
		return strings.TrimSpace(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				if medium := ext.Attrs["medium"]; medium != "" && medium != "image" {
					continue
				}
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	return ""
}

// truncateString shortens s for log previews.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// stripHTMLTags keeps the text of an HTML fragment with whitespace collapsed.
func stripHTMLTags(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("html parse failed, keeping raw text", "error", err, "preview", truncateString(html, 80))
		return html
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// StripHTML is stripHTMLTags for callers outside the package.
func StripHTML(html string) string {
	return stripHTMLTags(html)
}
