package sentiment

import (
	"regexp"
	"strings"

	"stock-scout/internal/domain/market"
)

// Score is the aggregate news polarity for one ticker in one pipeline run.
// The zero value is never a stand-in for "no news": absence is signalled by
// the ok=false return of Scorer.Score.
type Score struct {
	Mean  float64 // arithmetic mean of per-item polarity, in [-1, 1]
	Items int     // number of news items scored
}

var (
	urlPattern     = regexp.MustCompile(`https?://\S+|www\.\S+`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s-]`)
)

// Scorer maps article text to a polarity score using the package lexicon.
// It is pure: deterministic over its input and free of side effects.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the mean polarity over the given news items. Empty input
// returns ok=false, which callers must treat as "no sentiment available",
// distinct from a neutral 0.0.
func (s *Scorer) Score(items []market.NewsItem) (Score, bool) {
	if len(items) == 0 {
		return Score{}, false
	}
	var sum float64
	for _, item := range items {
		sum += scoreText(item.Headline + " " + item.Body)
	}
	return Score{
		Mean:  clamp(sum/float64(len(items)), -1, 1),
		Items: len(items),
	}, true
}

// scoreText returns the net polarity of a single text in [-1, 1]. The score
// is (bull - bear) / (bull + bear) over matched keyword weights; text with no
// lexicon hit scores 0.
func scoreText(text string) float64 {
	cleaned := cleanText(text)
	var bull, bear float64
	for _, t := range bullishTerms {
		if strings.Contains(cleaned, t.word) {
			bull += t.weight
		}
	}
	for _, t := range bearishTerms {
		if strings.Contains(cleaned, t.word) {
			bear += t.weight
		}
	}
	total := bull + bear
	if total == 0 {
		return 0
	}
	return (bull - bear) / total
}

// cleanText strips URLs and punctuation and lowercases, so lexicon matching
// is not thrown off by markup or casing.
func cleanText(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
