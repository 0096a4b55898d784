package classifier

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadCorpus reads "category,text" lines after a header line. The text keeps
// any further commas. Lines without a comma are skipped and counted.
func ReadCorpus(r io.Reader) ([]Sample, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var samples []Sample
	malformed := 0
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		category, text, ok := strings.Cut(line, ",")
		if !ok {
			malformed++
			continue
		}
		samples = append(samples, Sample{
			Category: strings.TrimSpace(category),
			Text:     strings.TrimSpace(text),
		})
	}
	if err := scanner.Err(); err != nil {
		return samples, malformed, fmt.Errorf("read corpus: %w", err)
	}
	return samples, malformed, nil
}

// LoadCorpusFile reads a corpus from disk.
func LoadCorpusFile(path string) ([]Sample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return ReadCorpus(f)
}

// keywordsFile is the YAML layout of a keyword table:
//
//	categories:
//	  - name: sports
//	    keywords: [match, team]
type keywordsFile struct {
	Categories []CategoryKeywords `yaml:"categories"`
}

// LoadKeywordsFile reads a keyword table from YAML; order in the file is the
// tie-break order.
func LoadKeywordsFile(path string) ([]CategoryKeywords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var kf keywordsFile
	if err := yaml.NewDecoder(f).Decode(&kf); err != nil {
		return nil, fmt.Errorf("decode keywords file: %w", err)
	}

	table := make([]CategoryKeywords, 0, len(kf.Categories))
	for _, row := range kf.Categories {
		if strings.TrimSpace(row.Category) == "" {
			continue
		}
		table = append(table, row)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("keywords file %s declares no categories", path)
	}
	return table, nil
}
