package classifier

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// bayesModel is immutable once published.
type bayesModel struct {
	categories     []string // first appearance order in the corpus
	docCounts      map[string]int
	priors         map[string]float64
	wordCounts     map[string]map[string]int
	tokenTotals    map[string]int
	vocabularySize int
	totalDocuments int
}

// BayesClassifier is a multinomial Naive Bayes classifier with add-one
// smoothing. Train publishes a complete model atomically, so concurrent
// Classify calls see either the old or the new model, never a mix.
type BayesClassifier struct {
	model atomic.Pointer[bayesModel]
}

func NewBayesClassifier() *BayesClassifier {
	return &BayesClassifier{}
}

func (c *BayesClassifier) Kind() Kind { return KindBayes }

// Tokenize lower-cases text, turns non word characters into spaces and drops
// tokens of two characters or less.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	parts := strings.Split(text, " ")
	tokens := parts[:0]
	for _, p := range parts {
		if len(p) > 2 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Train replaces the model with one built from samples. Samples with an empty
// category or text are skipped. When nothing is usable, or the usable rows
// yield no vocabulary, ErrEmptyCorpus is returned and the current model stays
// in place.
func (c *BayesClassifier) Train(samples []Sample) (TrainReport, error) {
	m := &bayesModel{
		docCounts:   make(map[string]int),
		priors:      make(map[string]float64),
		wordCounts:  make(map[string]map[string]int),
		tokenTotals: make(map[string]int),
	}
	vocabulary := make(map[string]struct{})
	report := TrainReport{}

	for _, s := range samples {
		category := strings.TrimSpace(s.Category)
		if category == "" || strings.TrimSpace(s.Text) == "" {
			report.Skipped++
			continue
		}

		if _, seen := m.docCounts[category]; !seen {
			m.categories = append(m.categories, category)
			m.wordCounts[category] = make(map[string]int)
		}
		m.docCounts[category]++
		m.totalDocuments++

		for _, tok := range Tokenize(s.Text) {
			vocabulary[tok] = struct{}{}
			m.wordCounts[category][tok]++
			m.tokenTotals[category]++
		}
	}

	// rows whose tokens are all too short leave nothing to score against
	if m.totalDocuments == 0 || len(vocabulary) == 0 {
		return report, ErrEmptyCorpus
	}

	for _, category := range m.categories {
		m.priors[category] = float64(m.docCounts[category]) / float64(m.totalDocuments)
	}
	m.vocabularySize = len(vocabulary)

	c.model.Store(m)

	report.Documents = m.totalDocuments
	report.VocabularySize = m.vocabularySize
	report.Categories = append([]string(nil), m.categories...)
	return report, nil
}

// Classify returns ErrNotTrained until Train has succeeded once.
func (c *BayesClassifier) Classify(text string) (Result, error) {
	m := c.model.Load()
	if m == nil {
		return Result{}, ErrNotTrained
	}

	words := Tokenize(text)
	scores := make(map[string]float64, len(m.categories))

	bestCategory := m.categories[0]
	bestScore := math.Inf(-1)
	for _, category := range m.categories {
		score := math.Log(m.priors[category])
		denominator := float64(m.tokenTotals[category] + m.vocabularySize)
		counts := m.wordCounts[category]
		for _, w := range words {
			score += math.Log(float64(counts[w]+1) / denominator)
		}
		scores[category] = score

		if score > bestScore {
			bestScore = score
			bestCategory = category
		}
	}

	return Result{
		Category:    bestCategory,
		Confidence:  gapConfidence(scores),
		Explanation: fmt.Sprintf("naive bayes over %d words", len(words)),
		Scores:      scores,
	}, nil
}

// gapConfidence is (top - second) / |top| clamped to [0, 1]; 1 with a single
// category. It grows with certainty but is not a calibrated probability.
func gapConfidence(scores map[string]float64) float64 {
	if len(scores) < 2 {
		return 1
	}

	sorted := make([]float64, 0, len(scores))
	for _, s := range scores {
		sorted = append(sorted, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	top, second := sorted[0], sorted[1]
	if top == 0 {
		if top > second {
			return 1
		}
		return 0
	}

	conf := (top - second) / math.Abs(top)
	if math.IsNaN(conf) {
		return 0
	}
	return clamp01(conf)
}

func (c *BayesClassifier) Stats() Stats {
	m := c.model.Load()
	if m == nil {
		return Stats{Kind: KindBayes, Categories: []string{}}
	}

	distribution := make(map[string]int, len(m.docCounts))
	for k, v := range m.docCounts {
		distribution[k] = v
	}
	return Stats{
		Trained:              true,
		Kind:                 KindBayes,
		Categories:           append([]string(nil), m.categories...),
		VocabularySize:       m.vocabularySize,
		TotalDocuments:       m.totalDocuments,
		CategoryDistribution: distribution,
	}
}
