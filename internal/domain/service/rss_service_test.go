package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wolfitem/news-enricher/internal/domain/model"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Sports Daily</title>
  <link>https://ex.com/</link>
  <description>sports</description>
  <item>
    <title>Team wins final</title>
    <link>https://ex.com/final</link>
    <description>&lt;p&gt;The &lt;b&gt;team&lt;/b&gt; won the match&lt;/p&gt;</description>
    <pubDate>Mon, 06 May 2024 10:00:00 GMT</pubDate>
    <enclosure url="https://ex.com/final.jpg" type="image/jpeg" length="100"/>
  </item>
  <item>
    <title>Coach interview</title>
    <link>https://ex.com/coach</link>
    <media:content url="https://ex.com/coach.jpg" medium="image"/>
  </item>
  <item>
    <title>Third</title>
    <link>https://ex.com/third</link>
  </item>
</channel>
</rss>`

func TestFetchFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	svc := NewRssService(model.RssConfig{MaxItemsPerFeed: 2, Timeout: time.Second}, "test-agent")
	result, err := svc.FetchFeed(context.Background(), model.FeedSource{Title: "cfg title", XMLURL: srv.URL})
	if err != nil {
		t.Fatalf("FetchFeed() error = %v", err)
	}

	if result.SourceName != "Sports Daily" {
		t.Errorf("SourceName = %q", result.SourceName)
	}
	if len(result.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Items))
	}

	first := result.Items[0]
	if first.Link != "https://ex.com/final" || first.Snippet != "The team won the match" {
		t.Errorf("first item = %+v", first)
	}
	if first.FeedImage != "https://ex.com/final.jpg" {
		t.Errorf("enclosure image = %q", first.FeedImage)
	}
	if want := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC); !first.PublishDate.Equal(want) {
		t.Errorf("PublishDate = %v, want %v", first.PublishDate, want)
	}

	second := result.Items[1]
	if second.FeedImage != "https://ex.com/coach.jpg" {
		t.Errorf("media:content image = %q", second.FeedImage)
	}
	if !second.PublishDate.IsZero() {
		t.Errorf("undated item got %v", second.PublishDate)
	}
}

func TestFetchFeedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	svc := NewRssService(model.RssConfig{MaxRetries: 3, RetryBackoff: time.Millisecond, Timeout: time.Second}, "")
	result, err := svc.FetchFeed(context.Background(), model.FeedSource{XMLURL: srv.URL})
	if err != nil {
		t.Fatalf("FetchFeed() error = %v", err)
	}
	if len(result.Items) != 3 || calls.Load() != 2 {
		t.Errorf("items = %d, calls = %d, want 3 items after 2 calls", len(result.Items), calls.Load())
	}
}

func TestFetchFeedFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	svc := NewRssService(model.RssConfig{MaxRetries: 2, RetryBackoff: time.Millisecond, Timeout: time.Second}, "")
	if _, err := svc.FetchFeed(context.Background(), model.FeedSource{XMLURL: srv.URL}); err == nil {
		t.Fatal("FetchFeed() succeeded on a non-feed body")
	}
}

func TestParseOpml(t *testing.T) {
	t.Parallel()

	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>feeds</title></head>
  <body>
    <outline text="News" title="News">
      <outline type="rss" text="World" title="World" xmlUrl="https://ex.com/world.xml"/>
      <outline text="Nested">
        <outline type="rss" text="Tech only text" xmlUrl="https://ex.com/tech.xml"/>
      </outline>
    </outline>
    <outline type="rss" title="Sports" text="Sports" xmlUrl="https://ex.com/sports.xml"/>
  </body>
</opml>`

	path := filepath.Join(t.TempDir(), "feeds.opml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := NewRssService(model.RssConfig{}, "").ParseOpml(path)
	if err != nil {
		t.Fatalf("ParseOpml() error = %v", err)
	}

	want := []model.FeedSource{
		{Title: "World", XMLURL: "https://ex.com/world.xml"},
		{Title: "Tech only text", XMLURL: "https://ex.com/tech.xml"},
		{Title: "Sports", XMLURL: "https://ex.com/sports.xml"},
	}
	if len(sources) != len(want) {
		t.Fatalf("ParseOpml() = %+v", sources)
	}
	for i := range want {
		if sources[i] != want[i] {
			t.Errorf("source %d = %+v, want %+v", i, sources[i], want[i])
		}
	}
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	if got := StripHTML("<p>Hello <b>world</b></p>\n\n<p>again</p>"); got != "Hello world again" {
		t.Errorf("StripHTML() = %q", got)
	}
	if got := StripHTML(""); got != "" {
		t.Errorf("StripHTML(empty) = %q", got)
	}
}
