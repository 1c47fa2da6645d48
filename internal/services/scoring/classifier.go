package scoring

import "SignalForge/internal/domain/models"

const (
	confidenceGate = 0.5

	strongBuyAbove  = 0.8
	buyAbove        = 0.6
	strongSellBelow = 0.2
	sellBelow       = 0.4

	lowRiskAbove    = 0.8
	mediumRiskAbove = 0.6
)

// Classify maps (overall, confidence) to a recommendation and risk tier.
// The confidence gate is evaluated first; the remaining checks are order-sensitive
// and use strict comparisons.
func Classify(overall, confidence float64) (models.Recommendation, models.RiskLevel) {
	return recommend(overall, confidence), riskFor(confidence)
}

func recommend(overall, confidence float64) models.Recommendation {
	switch {
	case !(confidence >= confidenceGate):
		return models.RecommendationHold
	case overall > strongBuyAbove:
		return models.RecommendationStrongBuy
	case overall > buyAbove:
		return models.RecommendationBuy
	case overall < strongSellBelow:
		return models.RecommendationStrongSell
	case overall < sellBelow:
		return models.RecommendationSell
	default:
		return models.RecommendationHold
	}
}

func riskFor(confidence float64) models.RiskLevel {
	switch {
	case confidence > lowRiskAbove:
		return models.RiskLow
	case confidence > mediumRiskAbove:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
