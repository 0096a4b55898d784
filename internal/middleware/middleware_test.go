package middleware

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("budget is enforced within the window", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(2, time.Hour)
		if !rl.Check() || !rl.Check() {
			t.Fatal("first two requests should pass")
		}
		if rl.Check() {
			t.Fatal("third request should be rejected")
		}

		err := rl.WithLimiter(context.Background(), func() error { return nil })
		var rle *RateLimitError
		if !errors.As(err, &rle) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rle.Status.Remaining != 0 || rle.Status.Used != 2 {
			t.Errorf("unexpected status %+v", rle.Status)
		}
	})

	t.Run("zero limit is unlimited", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(0, time.Hour)
		for i := 0; i < 100; i++ {
			if !rl.Check() {
				t.Fatalf("request %d rejected", i)
			}
		}
	})
}

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("boom")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("wraps the last error", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("still down")
		err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() error { return sentinel })
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped sentinel, got %v", err)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, 5, time.Hour, func() error { return errors.New("x") })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMetricsCollectorReport(t *testing.T) {
	t.Parallel()

	m := NewMetricsCollector()
	wrap := NewMetricsMiddleware(m)
	_ = wrap(context.Background(), func() error { return nil })
	_ = wrap(context.Background(), func() error { return errors.New("timeout") })
	m.RecordFeed(true)
	m.RecordFeed(false)
	m.RecordImage("meta")
	m.RecordImage("meta")
	m.RecordImage("")
	m.RecordArticle(true)
	m.RecordArticle(false)
	m.RecordCache(true)
	m.RecordCache(false)

	r := m.GetReport()
	if r.Fetch.Total != 2 || r.Fetch.Failed != 1 || r.Fetch.SuccessRate != 50 {
		t.Errorf("fetch stats = %+v", r.Fetch)
	}
	if r.Feeds.OK != 1 || r.Feeds.Failed != 1 {
		t.Errorf("feed stats = %+v", r.Feeds)
	}
	if r.Articles.ImagesFound != 2 || r.Articles.ImagesMissing != 1 || r.Articles.ImagesByTier["meta"] != 2 {
		t.Errorf("image stats = %+v", r.Articles)
	}
	if r.Articles.Enriched != 2 || r.Articles.ClassifyFailures != 1 {
		t.Errorf("article stats = %+v", r.Articles)
	}
	if r.Cache.HitRate != 50 {
		t.Errorf("cache hit rate = %v", r.Cache.HitRate)
	}
}
