package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/wolfitem/news-enricher/internal/domain/classifier"
	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubNews struct {
	articles   []model.ArticleRecord
	listErr    error
	classifier classifier.Classifier
	lastLimit  int
}

func (s *stubNews) ListArticles(context.Context) ([]model.ArticleRecord, error) {
	return s.articles, s.listErr
}

func (s *stubNews) ArticlesByCategory(_ context.Context, category string) ([]model.ArticleRecord, error) {
	out := []model.ArticleRecord{}
	for _, a := range s.articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, s.listErr
}

func (s *stubNews) ArchivedArticles(_ context.Context, _ string, limit int) ([]model.ArticleRecord, error) {
	s.lastLimit = limit
	return []model.ArticleRecord{}, nil
}

func (s *stubNews) Classify(text string) (classifier.Result, error) {
	return s.classifier.Classify(text)
}

func (s *stubNews) ClassifierStats() classifier.Stats { return s.classifier.Stats() }

func (s *stubNews) Estimate(context.Context) int { return 7 }

func newStub(t *testing.T, kind classifier.Kind) *stubNews {
	t.Helper()
	c, err := classifier.New(classifier.Config{Kind: kind})
	if err != nil {
		t.Fatal(err)
	}
	return &stubNews{
		classifier: c,
		articles: []model.ArticleRecord{
			{Title: "Team wins", Link: "https://ex.com/1", Category: "sports"},
			{Title: "Chip", Link: "https://ex.com/2", Category: "technology"},
		},
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewsRoutes(t *testing.T) {
	t.Parallel()

	stub := newStub(t, classifier.KindKeyword)
	r := NewRouter(stub, middleware.NewMetricsCollector())

	w := do(r, http.MethodGet, "/news", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /news status = %d", w.Code)
	}
	var all []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil || len(all) != 2 {
		t.Fatalf("GET /news body = %s", w.Body.String())
	}
	if v, ok := all[0]["image"]; !ok || v != nil {
		t.Errorf("image field = %v, want explicit null", v)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("response has no request id")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	w = do(r, http.MethodGet, "/news/sports", "")
	var sports []model.ArticleRecord
	if err := json.Unmarshal(w.Body.Bytes(), &sports); err != nil || len(sports) != 1 {
		t.Errorf("GET /news/sports body = %s", w.Body.String())
	}

	w = do(r, http.MethodGet, "/news/weather", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("unknown category body = %s, want []", w.Body.String())
	}

	w = do(r, http.MethodGet, "/estimate", "")
	if !strings.Contains(w.Body.String(), `"estimate":7`) {
		t.Errorf("GET /estimate body = %s", w.Body.String())
	}
}

func TestNewsRoutesError(t *testing.T) {
	t.Parallel()

	stub := newStub(t, classifier.KindKeyword)
	stub.listErr = errors.New("cancelled")
	r := NewRouter(stub, nil)

	if w := do(r, http.MethodGet, "/news", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("GET /news status = %d, want 500", w.Code)
	}
}

func TestArchiveRoute(t *testing.T) {
	t.Parallel()

	stub := newStub(t, classifier.KindKeyword)
	r := NewRouter(stub, nil)

	if w := do(r, http.MethodGet, "/archive?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w := do(r, http.MethodGet, "/archive?limit=10000", "")
	if w.Code != http.StatusOK || stub.lastLimit != maxArchiveLimit {
		t.Errorf("status = %d, limit = %d", w.Code, stub.lastLimit)
	}
}

func TestAIRoutes(t *testing.T) {
	t.Parallel()

	r := NewRouter(newStub(t, classifier.KindKeyword), middleware.NewMetricsCollector())

	w := do(r, http.MethodPost, "/ai/test", `{"summary":"no title"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d, want 400", w.Code)
	}

	w = do(r, http.MethodPost, "/ai/test", `{"title":"Team wins championship match","source":"x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /ai/test status = %d body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Article        ClassifyRequest   `json:"article"`
		Classification classifier.Result `json:"classification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Classification.Category != "sports" || resp.Article.Source != "x" {
		t.Errorf("POST /ai/test = %+v", resp)
	}

	w = do(r, http.MethodGet, "/ai/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /ai/stats status = %d", w.Code)
	}
	var stats map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"ai", "server", "pipeline"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("GET /ai/stats missing %q", key)
		}
	}
}

func TestAIRoutesUntrained(t *testing.T) {
	t.Parallel()

	r := NewRouter(newStub(t, classifier.KindBayes), nil)
	w := do(r, http.MethodPost, "/ai/test", `{"title":"anything"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("untrained status = %d, want 503", w.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	t.Parallel()

	r := NewRouter(newStub(t, classifier.KindKeyword), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want the caller's", got)
	}
}
