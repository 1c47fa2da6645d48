package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"SignalForge/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTechnicalScore(t *testing.T) {
	tests := []struct {
		name string
		ind  models.IndicatorBundle
		want float64
	}{
		{"oversold with bullish macd and crossover", models.IndicatorBundle{RSI: 25, MACD: 1, SMAShort: 110, SMALong: 100}, 0.95},
		{"overbought with bearish macd and crossover", models.IndicatorBundle{RSI: 80, MACD: -1, SMAShort: 90, SMALong: 100}, 0.05},
		{"flat macd and equal averages count as bearish", models.IndicatorBundle{RSI: 50, MACD: 0, SMAShort: 100, SMALong: 100}, 0.25},
		{"rsi at bounds is neutral", models.IndicatorBundle{RSI: 30, MACD: 1, SMAShort: 90, SMALong: 100}, 0.55},
		{"nan indicators stay bounded", models.IndicatorBundle{RSI: math.NaN(), MACD: math.NaN(), SMAShort: math.NaN(), SMALong: 1}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TechnicalScore(tt.ind), eps)
		})
	}
}

func TestMomentumScore(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"empty history is neutral", nil, 0.5},
		{"single point is neutral", []float64{100}, 0.5},
		{"two points split in half", []float64{100, 102}, 0.6},
		{"one percent rise over window", append(flat(10, 100), flat(10, 101)...), 0.55},
		{"ten percent rise saturates", append(flat(10, 100), flat(10, 110)...), 1.0},
		{"ten percent fall floors", append(flat(10, 100), flat(10, 90)...), 0.0},
		{"samples before the window are ignored", append(append(flat(5, 1), flat(10, 100)...), flat(10, 101)...), 0.55},
		{"zero baseline is neutral", append(flat(10, 0), flat(10, 5)...), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MomentumScore(tt.prices), eps)
		})
	}
}

func TestVolumeScore(t *testing.T) {
	tests := []struct {
		name    string
		volumes []float64
		want    float64
	}{
		{"single point is neutral", []float64{1000}, 0.5},
		{"steady volume sits below midpoint", flat(10, 100), 0.3},
		{"doubled volume", append(flat(5, 100), flat(5, 200)...), 0.7},
		{"halved volume", append(flat(5, 100), flat(5, 50)...), 0.1},
		{"surge saturates", append(flat(5, 100), flat(5, 1000)...), 1.0},
		{"all earlier samples form the baseline", append(flat(15, 100), flat(5, 200)...), 0.7},
		{"short history split in half", []float64{100, 100}, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VolumeScore(tt.volumes), eps)
		})
	}
}

func TestSentimentScore(t *testing.T) {
	assert.Equal(t, 0.8, SentimentScore(0.8))
	assert.Equal(t, 1.0, SentimentScore(1.7))
	assert.Equal(t, 0.0, SentimentScore(-0.2))
	assert.Equal(t, 0.5, SentimentScore(math.NaN()))

	assert.InDelta(t, 0.75, FromPolarity(0.5), eps)
	assert.InDelta(t, 0.0, FromPolarity(-1), eps)
}

func TestOverallScore(t *testing.T) {
	neutral := models.ComponentScores{Technical: 0.5, Momentum: 0.5, Volume: 0.5, Sentiment: 0.5}
	assert.InDelta(t, 0.5, OverallScore(neutral), eps)

	weighted := models.ComponentScores{Technical: 1, Momentum: 0, Volume: 0, Sentiment: 0}
	assert.InDelta(t, WeightTechnical, OverallScore(weighted), eps)

	assert.InDelta(t, 1.0, WeightTechnical+WeightMomentum+WeightVolume+WeightSentiment, eps)
}

func TestConfidenceAndDirection(t *testing.T) {
	assert.InDelta(t, 0.0, Confidence(0.5), eps)
	assert.InDelta(t, 1.0, Confidence(1.0), eps)
	assert.InDelta(t, 1.0, Confidence(0.0), eps)
	assert.InDelta(t, 0.5, Confidence(0.75), eps)

	assert.Equal(t, models.DirectionBullish, DirectionFor(0.61))
	assert.Equal(t, models.DirectionNeutral, DirectionFor(0.6))
	assert.Equal(t, models.DirectionNeutral, DirectionFor(0.4))
	assert.Equal(t, models.DirectionBearish, DirectionFor(0.39))
}

func TestTargetPrice(t *testing.T) {
	got, err := TargetPrice([]float64{90, 100}, 0.75)
	require.NoError(t, err)
	assert.InDelta(t, 102.5, got, 1e-6)

	got, err = TargetPrice([]float64{100}, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, eps)

	_, err = TargetPrice(nil, 0.75)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInput))
}

func TestTargetPrice_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		overall float64
	}{
		{"projection overflows", []float64{1.79e308}, 1.0},
		{"infinite current price", []float64{100, math.Inf(1)}, 0.75},
		{"nan current price", []float64{math.NaN()}, 0.5},
		{"nan overall", []float64{100}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TargetPrice(tt.prices, tt.overall)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInput))
		})
	}

	got, err := TargetPrice([]float64{1.79e308}, 0.5)
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 0))
	_, err = json.Marshal(models.PredictionResult{TargetPrice: got})
	assert.NoError(t, err)
}

func TestComponentScores_StayBoundedOnExtremeInput(t *testing.T) {
	big := math.MaxFloat64
	histories := map[string][]float64{
		"huge flat":              flat(20, 1e308),
		"huge rise":              append(flat(10, 1e307), flat(10, 1e308)...),
		"sign flip at the limit": append(flat(10, -1e308), flat(10, 1e308)...),
		"limit to negative":      append(flat(10, 1e308), flat(10, -1e308)...),
		"max float":              {big, big, big, big},
		"tiny baseline":          append(flat(10, 1e-308), flat(10, 1e308)...),
		"negative values":        {-5, -10, -20, -40, -80, -1, -2, -3, -4, -5, -6},
		"mixed signs":            {-100, 100, -100, 100, -100, 100},
	}
	for name, xs := range histories {
		t.Run(name, func(t *testing.T) {
			for label, got := range map[string]float64{"momentum": MomentumScore(xs), "volume": VolumeScore(xs)} {
				assert.False(t, math.IsNaN(got), label)
				assert.GreaterOrEqual(t, got, 0.0, label)
				assert.LessOrEqual(t, got, 1.0, label)
			}
		})
	}

	assert.InDelta(t, 0.3, VolumeScore(flat(10, 1e308)), eps, "flat volume at the limit is steady")
	assert.InDelta(t, 0.5, MomentumScore(flat(20, big)), eps, "flat prices at the limit show no momentum")
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, Neutral, Clamp01(math.NaN()))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
	assert.Equal(t, 0.0, Clamp01(math.Inf(-1)))
	assert.Equal(t, 0.25, Clamp01(0.25))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		overall    float64
		confidence float64
		wantRec    models.Recommendation
		wantRisk   models.RiskLevel
	}{
		{"low confidence gates everything", 0.85, 0.4, models.RecommendationHold, models.RiskHigh},
		{"strong buy", 0.85, 0.7, models.RecommendationStrongBuy, models.RiskMedium},
		{"boundary 0.8 is only buy", 0.8, 0.6, models.RecommendationBuy, models.RiskHigh},
		{"boundary 0.4 is hold", 0.4, 0.95, models.RecommendationHold, models.RiskLow},
		{"sell", 0.3, 0.6, models.RecommendationSell, models.RiskHigh},
		{"strong sell", 0.1, 0.9, models.RecommendationStrongSell, models.RiskLow},
		{"confidence 0.8 is medium risk", 0.9, 0.8, models.RecommendationStrongBuy, models.RiskMedium},
		{"nan confidence holds", 0.9, math.NaN(), models.RecommendationHold, models.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, risk := Classify(tt.overall, tt.confidence)
			assert.Equal(t, tt.wantRec, rec)
			assert.Equal(t, tt.wantRisk, risk)
		})
	}
}

func TestEngine_Score(t *testing.T) {
	fixed := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	eng := NewEngine(WithClock(func() time.Time { return fixed }))

	in := models.PredictionInput{
		Symbol:        "AAPL",
		Timeframe:     models.TimeframeShort,
		PriceHistory:  append(flat(10, 100), flat(10, 110)...),
		VolumeHistory: append(flat(5, 100), flat(5, 200)...),
		Indicators:    models.IndicatorBundle{RSI: 25, MACD: 1, SMAShort: 110, SMALong: 100},
		Sentiment:     1.0,
	}

	res, err := eng.Score(in)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", res.Symbol)
	assert.InDelta(t, 0.95, res.Factors.Technical, eps)
	assert.InDelta(t, 1.0, res.Factors.Momentum, eps)
	assert.InDelta(t, 0.7, res.Factors.Volume, eps)
	assert.InDelta(t, 1.0, res.Factors.Sentiment, eps)
	assert.InDelta(t, 0.92, res.OverallScore, eps)
	assert.InDelta(t, 0.84, res.Confidence, eps)
	assert.InDelta(t, 110*1.042, res.TargetPrice, 1e-6)
	assert.Equal(t, models.DirectionBullish, res.Direction)
	assert.Equal(t, models.RecommendationStrongBuy, res.Recommendation)
	assert.Equal(t, models.RiskLow, res.RiskLevel)
	assert.Equal(t, models.TimeframeShort, res.TimeHorizon)
	assert.Equal(t, fixed, res.GeneratedAt)
}

func TestEngine_ScoreNeutralMarket(t *testing.T) {
	eng := NewEngine()
	res, err := eng.Score(models.PredictionInput{
		Symbol:       "MSFT",
		PriceHistory: []float64{100},
		Indicators:   models.IndicatorBundle{RSI: 50, MACD: 0.5, SMAShort: 100, SMALong: 100},
		Sentiment:    math.NaN(),
	})
	require.NoError(t, err)

	// technical 0.55, momentum 0.5, volume 0.5, sentiment 0.5
	assert.InDelta(t, 0.52, res.OverallScore, eps)
	assert.Equal(t, models.RecommendationHold, res.Recommendation)
	assert.Equal(t, models.DirectionNeutral, res.Direction)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
}

func TestEngine_ScoreEmptyHistory(t *testing.T) {
	_, err := NewEngine().Score(models.PredictionInput{Symbol: "AAPL"})
	require.Error(t, err)

	var inErr *models.InputError
	assert.ErrorAs(t, err, &inErr)
}

func TestEngine_ScoreIsDeterministic(t *testing.T) {
	fixed := time.Unix(0, 0)
	eng := NewEngine(WithClock(func() time.Time { return fixed }))
	in := models.PredictionInput{
		Symbol:        "ETH",
		PriceHistory:  []float64{10, 11, 12, 13},
		VolumeHistory: []float64{5, 6, 7},
		Indicators:    models.IndicatorBundle{RSI: 65, MACD: -0.2, SMAShort: 12, SMALong: 11},
		Sentiment:     0.4,
	}
	a, err := eng.Score(in)
	require.NoError(t, err)
	b, err := eng.Score(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
