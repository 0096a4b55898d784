package classifier

import (
	"fmt"
	"strings"
)

// defaultCategory wins when no keyword matches at all.
const defaultCategory = "business"

// zeroScoreConfidence is reported when nothing matched, so "no signal" stays
// distinguishable from a failed classification.
const zeroScoreConfidence = 0.1

// CategoryKeywords is one row of the keyword table.
type CategoryKeywords struct {
	Category string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// KeywordClassifier scores categories by counting tokens that contain one of
// their keywords.
//
// Matching is substring containment, so "art" also hits "cart". That trades
// precision for recall and is kept as is.
type KeywordClassifier struct {
	table    []CategoryKeywords
	fallback string
}

// NewKeywordClassifier copies table; category order decides ties.
func NewKeywordClassifier(table []CategoryKeywords) *KeywordClassifier {
	copied := make([]CategoryKeywords, 0, len(table))
	for _, row := range table {
		kws := make([]string, 0, len(row.Keywords))
		for _, kw := range row.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		copied = append(copied, CategoryKeywords{Category: row.Category, Keywords: kws})
	}

	fallback := defaultCategory
	if !hasCategory(copied, fallback) && len(copied) > 0 {
		fallback = copied[0].Category
	}
	return &KeywordClassifier{table: copied, fallback: fallback}
}

func hasCategory(table []CategoryKeywords, name string) bool {
	for _, row := range table {
		if row.Category == name {
			return true
		}
	}
	return false
}

func (c *KeywordClassifier) Kind() Kind { return KindKeyword }

// Classify never fails.
func (c *KeywordClassifier) Classify(text string) (Result, error) {
	words := strings.Fields(strings.ToLower(text))
	scores := make(map[string]float64, len(c.table))

	bestCategory := c.fallback
	bestScore := 0
	for _, row := range c.table {
		score := 0
		for _, word := range words {
			if containsAny(word, row.Keywords) {
				score++
			}
		}
		scores[row.Category] = float64(score)
		if score > bestScore {
			bestScore = score
			bestCategory = row.Category
		}
	}

	confidence := zeroScoreConfidence
	if bestScore > 0 {
		confidence = clamp01(float64(bestScore) / 3)
	}

	return Result{
		Category:    bestCategory,
		Confidence:  confidence,
		Explanation: fmt.Sprintf("keyword match: %d keywords found", bestScore),
		Scores:      scores,
	}, nil
}

func containsAny(word string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(word, kw) {
			return true
		}
	}
	return false
}

func (c *KeywordClassifier) Stats() Stats {
	categories := make([]string, 0, len(c.table))
	total := 0
	for _, row := range c.table {
		categories = append(categories, row.Category)
		total += len(row.Keywords)
	}
	return Stats{
		Trained:       true,
		Kind:          KindKeyword,
		Categories:    categories,
		TotalKeywords: total,
	}
}

// DefaultKeywords returns the built-in table.
func DefaultKeywords() []CategoryKeywords {
	return []CategoryKeywords{
		{Category: "business", Keywords: []string{
			"business", "economy", "finance", "market", "stock", "company", "investment", "trade", "economic",
			"financial", "bank", "banking", "money", "profit", "revenue", "earnings", "quarterly", "annual",
			"report", "ceo", "executive", "board", "shareholder", "dividend", "merger", "acquisition", "ipo",
			"startup", "venture", "capital",
		}},
		{Category: "entertainment", Keywords: []string{
			"entertainment", "movie", "film", "music", "celebrity", "actor", "singer", "show", "concert",
			"performance", "album", "song", "hit", "chart", "award", "oscar", "grammy", "emmy", "hollywood",
			"netflix", "streaming", "tv", "television", "series", "episode", "season", "premiere", "release",
			"trailer", "review",
		}},
		{Category: "politics", Keywords: []string{
			"politics", "political", "government", "election", "president", "minister", "parliament", "vote",
			"democrat", "republican", "campaign", "policy", "law", "bill", "congress", "senate", "house",
			"representative", "senator", "mayor", "governor", "cabinet", "administration", "foreign",
			"diplomacy", "treaty", "agreement", "politique", "gouvernement", "élection", "président",
			"ministre", "parlement", "démocrate", "républicain", "campagne", "loi", "projet", "congrès",
			"sénat", "maire", "gouverneur", "étranger", "diplomatie", "traité", "accord", "parti",
			"opposition", "majorité", "minorité", "coalition", "alliance", "candidat", "candidate", "électeur",
			"électrice", "scrutin", "ballot", "referendum", "référendum", "constitution", "amendement",
			"budget", "déficit", "dette", "impôt", "tax", "débat", "discussion", "abstention", "participation",
			"résultat", "victoire", "défaite", "state", "federal", "local", "national", "international",
			"european", "american", "french", "british", "german", "italian", "spanish", "russian", "chinese",
			"japanese", "canadian", "australian", "indian", "brazilian", "mexican", "african", "asian",
			"middle east", "nato", "un", "united nations", "eu", "european union", "brexit", "trump", "biden",
			"macron", "merkel", "johnson", "putin", "xi", "modi", "bolsonaro", "lopez obrador",
		}},
		{Category: "sports", Keywords: []string{
			"sport", "football", "basketball", "tennis", "olympics", "championship", "match", "game", "player",
			"team", "league", "tournament", "coach", "athlete", "soccer", "baseball", "hockey", "golf",
			"swimming", "running", "marathon", "race", "competition", "win", "victory", "defeat", "score",
			"goal", "point", "medal", "gold", "silver", "bronze",
		}},
		{Category: "technology", Keywords: []string{
			"tech", "technology", "ai", "artificial intelligence", "software", "app", "digital", "computer",
			"internet", "cyber", "data", "algorithm", "machine learning", "blockchain", "crypto", "startup", "innovation",
			"programming", "code", "developer", "coding", "hardware", "gadget", "device", "smartphone",
			"laptop", "server", "cloud", "database", "api", "web", "mobile", "application",
		}},
	}
}
