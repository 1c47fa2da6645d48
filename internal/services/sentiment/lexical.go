package sentiment

import (
	"context"
	"math"
	"strings"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/service"
)

// LexicalAnalyzer scores text by averaging signed weights of known market words.
type LexicalAnalyzer struct {
	positive map[string]float64
	negative map[string]float64
}

func NewLexicalAnalyzer() *LexicalAnalyzer {
	return &LexicalAnalyzer{
		positive: map[string]float64{
			"surge": 1.0, "soar": 1.0, "skyrocket": 1.0, "breakthrough": 1.0,
			"bullish": 0.95, "rally": 0.95, "boom": 0.95,
			"breakout": 0.9, "outperform": 0.9,
			"beat": 0.85, "exceed": 0.85, "upgrade": 0.85, "optimistic": 0.85,
			"profit": 0.8, "growth": 0.8, "gain": 0.8, "gains": 0.8, "jump": 0.8, "strong": 0.8,
			"recover": 0.7, "rebound": 0.7, "rising": 0.75, "upside": 0.75,
			"positive": 0.65, "rise": 0.65, "higher": 0.65, "good": 0.65,
			"buy": 0.6, "support": 0.6, "steady": 0.6, "stable": 0.5,
		},
		negative: map[string]float64{
			"crash": 1.0, "plunge": 1.0, "collapse": 1.0, "disaster": 1.0,
			"crisis": 0.95, "bankruptcy": 0.95, "plummet": 0.95, "tumble": 0.95,
			"panic": 0.9, "worst": 0.9,
			"bearish": 0.85, "downgrade": 0.85, "lawsuit": 0.85, "warning": 0.85,
			"loss": 0.8, "losses": 0.8, "miss": 0.8, "decline": 0.8, "slump": 0.8,
			"weak": 0.75, "drop": 0.75, "fall": 0.75, "falling": 0.75,
			"concern": 0.7, "concerns": 0.7, "uncertain": 0.7,
			"risk": 0.65, "volatile": 0.65, "sell": 0.6, "lower": 0.6, "negative": 0.6,
			"dip": 0.55, "correction": 0.5, "pullback": 0.5,
		},
	}
}

// Analyze never fails; text without known words is neutral with zero confidence.
func (a *LexicalAnalyzer) Analyze(_ context.Context, text string) (models.SentimentAnalysis, error) {
	words := strings.Fields(strings.ToLower(text))

	var score float64
	var matches int
	for _, w := range words {
		w = strings.Trim(w, ".,!?\"'()[]{}:;")
		if v, ok := a.positive[w]; ok {
			score += v
			matches++
		} else if v, ok := a.negative[w]; ok {
			score -= v
			matches++
		}
	}

	out := models.SentimentAnalysis{Sentiment: models.SentimentNeutral}
	if matches == 0 {
		return out, nil
	}
	out.Score = clampPolarity(score / float64(matches))
	out.Confidence = float64(matches) / float64(len(words))
	switch {
	case out.Score > 0.1:
		out.Sentiment = models.SentimentPositive
	case out.Score < -0.1:
		out.Sentiment = models.SentimentNegative
	}
	return out, nil
}

func clampPolarity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

var _ service.SentimentAnalyzer = (*LexicalAnalyzer)(nil)
