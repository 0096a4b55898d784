package cmd

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wolfitem/news-enricher/internal/domain/service"
)

var classifyStats bool

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify a piece of text with the configured classifier",
	Example: `  news-enricher classify "Team wins championship match"
  news-enricher classify --stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clf, err := buildClassifier(service.NewValidator(viper.GetBool("rss.allow_private")), loadClassifierConfig())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if classifyStats {
			return enc.Encode(clf.Stats())
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("nothing to classify")
		}
		result, err := clf.Classify(text)
		if err != nil {
			return err
		}
		return enc.Encode(result)
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyStats, "stats", false, "print classifier statistics instead")

	rootCmd.AddCommand(classifyCmd)
}
