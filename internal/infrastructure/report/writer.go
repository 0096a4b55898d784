// Package report writes enriched articles as JSON or as a markdown digest.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfitem/news-enricher/internal/domain/model"
)

// Writer outputs a batch of enriched articles.
type Writer interface {
	// Write returns the number of bytes written.
	Write(articles []model.ArticleRecord) (int, error)
}

// NewWriter returns the writer for format: "json" or "markdown".
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case "", "json":
		return NewJSONWriter(output, WithIndent("", "  ")), nil
	case "markdown", "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// JSONWriter writes the articles as one JSON array.
type JSONWriter struct {
	output       io.Writer
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *JSONWriter) Write(articles []model.ArticleRecord) (int, error) {
	if articles == nil {
		articles = []model.ArticleRecord{}
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(articles, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(articles)
	}
	if err != nil {
		return 0, fmt.Errorf("marshal articles: %w", err)
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
