package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolfitem/news-enricher/internal/domain/model"
	"github.com/wolfitem/news-enricher/internal/infrastructure/logger"
	"github.com/wolfitem/news-enricher/internal/infrastructure/report"
	"github.com/wolfitem/news-enricher/internal/middleware"
)

var (
	fetchFormat   string
	fetchOutput   string
	fetchCategory string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Enrich all feeds once and write a report",
	Long: `fetch runs the pipeline once over every configured feed and writes the
enriched articles as JSON or as a markdown digest.`,
	Example: `  news-enricher fetch
  news-enricher fetch --format markdown --output digest.md
  news-enricher fetch --category sports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.TimeTrack("fetch")()

		app, err := buildApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		var articles []model.ArticleRecord
		if fetchCategory != "" {
			articles, err = app.enrichment.ArticlesByCategory(cmd.Context(), fetchCategory)
		} else {
			articles, err = app.enrichment.ListArticles(cmd.Context())
		}
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if fetchOutput != "" {
			f, err := os.Create(fetchOutput)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			defer f.Close()
			out = f
		}

		writer, err := report.NewWriter(fetchFormat, out)
		if err != nil {
			return err
		}
		n, err := writer.Write(articles)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		logger.Info("report written", "format", fetchFormat, "articles", n, "output", outputName(fetchOutput))
		middleware.LogMetrics(app.metrics)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "json", "report format: json or markdown")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "report file (default stdout)")
	fetchCmd.Flags().StringVarP(&fetchCategory, "category", "c", "", "only keep articles of this category")

	rootCmd.AddCommand(fetchCmd)
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
