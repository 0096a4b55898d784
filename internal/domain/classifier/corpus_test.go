package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCorpus(t *testing.T) {
	t.Parallel()

	input := "category,text\n" +
		"tech,new phone, faster chip\n" +
		"\n" +
		"no comma here\n" +
		"sport , final whistle \n"

	samples, malformed, err := ReadCorpus(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCorpus returned error: %v", err)
	}
	if malformed != 1 {
		t.Errorf("malformed = %d, want 1", malformed)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Category != "tech" || samples[0].Text != "new phone, faster chip" {
		t.Errorf("first sample = %+v", samples[0])
	}
	if samples[1].Category != "sport" || samples[1].Text != "final whistle" {
		t.Errorf("second sample = %+v", samples[1])
	}
}

func TestLoadKeywordsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	content := `categories:
  - name: travel
    keywords: [flight, hotel]
  - name: food
    keywords: [pasta]
  - keywords: [ignored]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadKeywordsFile(path)
	if err != nil {
		t.Fatalf("LoadKeywordsFile returned error: %v", err)
	}
	if len(table) != 2 || table[0].Category != "travel" || table[1].Keywords[0] != "pasta" {
		t.Fatalf("unexpected table %+v", table)
	}

	c, err := New(Config{Kind: KindKeyword, Keywords: table})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := c.Classify("cheap flights")
	if got.Category != "travel" {
		t.Errorf("category = %q, want travel", got.Category)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("categories: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeywordsFile(empty); err == nil {
		t.Error("expected error for a table without categories")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	kw, err := New(Config{})
	if err != nil || kw.Kind() != KindKeyword {
		t.Fatalf("default kind: %v, %v", kw, err)
	}
	nb, err := New(Config{Kind: KindBayes})
	if err != nil || nb.Kind() != KindBayes {
		t.Fatalf("bayes kind: %v, %v", nb, err)
	}
	if _, ok := nb.(Trainer); !ok {
		t.Error("bayes classifier should implement Trainer")
	}
	if _, err := New(Config{Kind: "llm"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
