// Package classifier assigns a topic category to article text.
//
// Two strategies share the Classifier interface: a keyword scorer that needs
// no training and a multinomial Naive Bayes model trained from a labeled
// corpus. The strategy is picked once, by New.
package classifier

import (
	"errors"
	"fmt"
)

// Kind names a classification strategy.
type Kind string

const (
	KindKeyword Kind = "keyword"
	KindBayes   Kind = "bayes"
)

var (
	// ErrNotTrained is returned by Classify on a model that was never trained
	// successfully. It means the model is unusable, not uncertain.
	ErrNotTrained = errors.New("classifier is not trained")
	// ErrEmptyCorpus is returned by Train when no sample is usable.
	ErrEmptyCorpus = errors.New("training corpus has no valid samples")
)

// Result is the outcome of one classification.
type Result struct {
	Category    string             `json:"category"`
	Confidence  float64            `json:"confidence"`
	Explanation string             `json:"reasoning"`
	Scores      map[string]float64 `json:"scores"`
}

// Stats describes the state of a classifier.
type Stats struct {
	Trained              bool           `json:"isTrained"`
	Kind                 Kind           `json:"method"`
	Categories           []string       `json:"categories"`
	VocabularySize       int            `json:"vocabularySize,omitempty"`
	TotalDocuments       int            `json:"totalDocuments,omitempty"`
	CategoryDistribution map[string]int `json:"categoryDistribution,omitempty"`
	TotalKeywords        int            `json:"totalKeywords,omitempty"`
}

// Classifier labels text with one of its declared categories.
type Classifier interface {
	Kind() Kind
	Classify(text string) (Result, error)
	Stats() Stats
}

// Trainer is implemented by classifiers that learn from a corpus.
type Trainer interface {
	Train(samples []Sample) (TrainReport, error)
}

// Sample is one labeled training document.
type Sample struct {
	Category string
	Text     string
}

// TrainReport summarizes a training run.
type TrainReport struct {
	Documents      int
	Skipped        int
	VocabularySize int
	Categories     []string
}

// Config selects and prepares a classifier.
type Config struct {
	Kind Kind
	// Keywords replaces the built-in keyword table when non-empty.
	Keywords []CategoryKeywords
}

// New builds the classifier named by cfg.Kind. A Bayes classifier is returned
// untrained.
func New(cfg Config) (Classifier, error) {
	switch cfg.Kind {
	case KindKeyword, "":
		if len(cfg.Keywords) > 0 {
			return NewKeywordClassifier(cfg.Keywords), nil
		}
		return NewKeywordClassifier(DefaultKeywords()), nil
	case KindBayes:
		return NewBayesClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", cfg.Kind)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
