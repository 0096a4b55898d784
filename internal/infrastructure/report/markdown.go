package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/wolfitem/news-enricher/internal/domain/model"
)

// MarkdownWriter renders a digest: a summary table, the category
// distribution as a mermaid pie chart and one table per category.
type MarkdownWriter struct {
	output io.Writer
	now    func() time.Time
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output, now: time.Now}
}

func (w *MarkdownWriter) Write(articles []model.ArticleRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	groups, order := groupByCategory(articles)

	w.writeHeader(md, articles, order)
	if len(articles) == 0 {
		md.PlainText("No articles.")
		return len(md.String()), md.Build()
	}

	w.writePieChart(md, groups, order)
	for _, category := range order {
		w.writeCategory(md, category, groups[category])
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, articles []model.ArticleRecord, categories []string) {
	sources := map[string]struct{}{}
	withImage := 0
	for _, a := range articles {
		sources[a.SourceName] = struct{}{}
		if a.Image != nil {
			withImage++
		}
	}

	md.H1("News digest")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", w.now().UTC().Format(time.RFC3339)},
			{"Articles", fmt.Sprint(len(articles))},
			{"Sources", fmt.Sprint(len(sources))},
			{"Categories", fmt.Sprint(len(categories))},
			{"With image", fmt.Sprint(withImage)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, groups map[string][]model.ArticleRecord, order []string) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Articles per category"),
		piechart.WithShowData(true),
	)
	for _, category := range order {
		chart.LabelAndIntValue(category, uint64(len(groups[category])))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategory(md *markdown.Markdown, category string, articles []model.ArticleRecord) {
	md.H2(fmt.Sprintf("%s (%d)", category, len(articles)))
	md.PlainText("")

	rows := make([][]string, len(articles))
	for i, a := range articles {
		image := "-"
		if a.Image != nil {
			image = mdLink("image", *a.Image)
		}
		rows[i] = []string{
			mdLink(escapeCell(truncateString(a.Title, 80)), a.Link),
			escapeCell(a.SourceName),
			a.PublishDate.UTC().Format("2006-01-02"),
			fmt.Sprintf("%.2f", a.Confidence),
			image,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Source", "Date", "Confidence", "Image"},
		Rows:   rows,
	})
	md.PlainText("")
}

// groupByCategory keeps article order inside each category; categories are
// ordered by size, then name.
func groupByCategory(articles []model.ArticleRecord) (map[string][]model.ArticleRecord, []string) {
	groups := map[string][]model.ArticleRecord{}
	for _, a := range articles {
		groups[a.Category] = append(groups[a.Category], a)
	}

	order := make([]string, 0, len(groups))
	for category := range groups {
		order = append(order, category)
	}
	sort.Slice(order, func(i, j int) bool {
		if len(groups[order[i]]) != len(groups[order[j]]) {
			return len(groups[order[i]]) > len(groups[order[j]])
		}
		return order[i] < order[j]
	})
	return groups, order
}

func mdLink(text, target string) string {
	return fmt.Sprintf("[%s](%s)", strings.ReplaceAll(text, "]", `\]`), strings.ReplaceAll(target, ")", "%29"))
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
