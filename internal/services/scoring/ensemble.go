package scoring

import (
	"math"

	"SignalForge/internal/domain/models"
)

// Ensemble weights. They sum to 1.0 so the overall score stays a convex combination;
// the classifier thresholds assume exactly these values.
const (
	WeightTechnical = 0.4
	WeightMomentum  = 0.3
	WeightVolume    = 0.2
	WeightSentiment = 0.1
)

const (
	bullishAbove = 0.6
	bearishBelow = 0.4

	// targetMoveScale bounds the projected move to ±5% of the current price.
	targetMoveScale = 0.1
)

// OverallScore combines the component scores under the fixed weighting policy.
func OverallScore(c models.ComponentScores) float64 {
	overall := WeightTechnical*c.Technical +
		WeightMomentum*c.Momentum +
		WeightVolume*c.Volume +
		WeightSentiment*c.Sentiment
	return Clamp01(overall)
}

// Confidence is the distance of overall from the midpoint, rescaled to [0,1].
func Confidence(overall float64) float64 {
	if math.IsNaN(overall) {
		return 0
	}
	return Clamp01(math.Abs(overall-Neutral) * 2)
}

// DirectionFor maps the overall score to a market direction.
func DirectionFor(overall float64) models.Direction {
	switch {
	case overall > bullishAbove:
		return models.DirectionBullish
	case overall < bearishBelow:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// TargetPrice projects the last price in history by the overall score.
func TargetPrice(prices []float64, overall float64) (float64, error) {
	if len(prices) == 0 {
		return 0, &models.InputError{Op: "target price", Reason: "price history is empty"}
	}
	current := prices[len(prices)-1]
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return 0, &models.InputError{Op: "target price", Reason: "current price is not a finite number"}
	}
	target := current * (1 + (overall-Neutral)*targetMoveScale)
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return 0, &models.InputError{Op: "target price", Reason: "projected price is out of range"}
	}
	return target, nil
}
