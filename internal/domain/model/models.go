package model

import "time"

// FeedSource is one RSS/Atom feed to aggregate.
type FeedSource struct {
	Title  string // display name from config or OPML
	XMLURL string // feed address
}

// FeedItem is one entry of a feed before enrichment.
type FeedItem struct {
	Title       string    // may be empty
	Link        string    // article page, required for enrichment
	PublishDate time.Time // zero when the feed did not carry a date
	Snippet     string    // description with HTML stripped
	Content     string    // full content as published by the feed
	FeedImage   string    // image advertised by the feed itself (<image>, enclosure)
}

// FeedResult is the parsed content of one feed.
type FeedResult struct {
	SourceName string
	Items      []FeedItem
}

// ArticleRecord is an enriched feed item.
type ArticleRecord struct {
	Title            string             `json:"title"`
	Link             string             `json:"link"`
	PublishDate      time.Time          `json:"pubDate"`
	Summary          string             `json:"summary"`
	SourceName       string             `json:"source"`
	Image            *string            `json:"image"`
	Category         string             `json:"category"`
	Confidence       float64            `json:"confidence"`
	Explanation      string             `json:"aiReasoning"`
	ClassifierScores map[string]float64 `json:"scores,omitempty"`
}

// ImageURL returns the image or an empty string when there is none.
func (a ArticleRecord) ImageURL() string {
	if a.Image == nil {
		return ""
	}
	return *a.Image
}

// ImageCandidate is one rendition listed in a srcset attribute.
type ImageCandidate struct {
	Href  string
	Width int
}

