package models

import "time"

// Timeframe buckets a prediction horizon.
type Timeframe string

const (
	TimeframeShort  Timeframe = "short"
	TimeframeMedium Timeframe = "medium"
	TimeframeLong   Timeframe = "long"
)

type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "strong_buy"
	RecommendationBuy        Recommendation = "buy"
	RecommendationHold       Recommendation = "hold"
	RecommendationSell       Recommendation = "sell"
	RecommendationStrongSell Recommendation = "strong_sell"
)

// Actionable reports whether the recommendation asks for a position change.
func (r Recommendation) Actionable() bool {
	return r != RecommendationHold && r != ""
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Bands holds Bollinger-style volatility bounds.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorBundle is the technical snapshot fed to the normalizer.
type IndicatorBundle struct {
	RSI       float64 `json:"rsi"`
	MACD      float64 `json:"macd"`
	Bollinger Bands   `json:"bollinger"`
	SMAShort  float64 `json:"sma_short"`
	SMALong   float64 `json:"sma_long"`
}

// PredictionInput carries everything needed to score one asset.
// All histories share the same sampling cadence and are chronological.
type PredictionInput struct {
	Symbol        string          `json:"symbol"`
	Timeframe     Timeframe       `json:"timeframe"`
	PriceHistory  []float64       `json:"price_history"`
	VolumeHistory []float64       `json:"volume_history"`
	Indicators    IndicatorBundle `json:"indicators"`
	Sentiment     float64         `json:"sentiment"`
	NewsImpact    float64         `json:"news_impact"`
}

// ComponentScores are the normalized per-factor scores, each in [0,1].
type ComponentScores struct {
	Technical float64 `json:"technical"`
	Momentum  float64 `json:"momentum"`
	Volume    float64 `json:"volume"`
	Sentiment float64 `json:"sentiment"`
}

// PredictionResult is the immutable output of one scoring call.
type PredictionResult struct {
	Symbol         string          `json:"symbol"`
	Direction      Direction       `json:"direction"`
	Confidence     float64         `json:"confidence"`
	OverallScore   float64         `json:"overall_score"`
	TargetPrice    float64         `json:"target_price"`
	TimeHorizon    Timeframe       `json:"time_horizon"`
	Factors        ComponentScores `json:"factors"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	Recommendation Recommendation  `json:"recommendation"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
