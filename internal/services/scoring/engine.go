package scoring

import (
	"time"

	"SignalForge/internal/domain/models"
)

// Engine scores prediction inputs. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	now func() time.Time
}

type EngineOption func(*Engine)

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Components normalizes the raw inputs into the four component scores.
func (e *Engine) Components(in models.PredictionInput) models.ComponentScores {
	return models.ComponentScores{
		Technical: TechnicalScore(in.Indicators),
		Momentum:  MomentumScore(in.PriceHistory),
		Volume:    VolumeScore(in.VolumeHistory),
		Sentiment: SentimentScore(in.Sentiment),
	}
}

// Score runs the full normalize → combine → classify path. The only failure is an
// empty price history, which leaves no current price to project from.
func (e *Engine) Score(in models.PredictionInput) (models.PredictionResult, error) {
	factors := e.Components(in)
	overall := OverallScore(factors)

	target, err := TargetPrice(in.PriceHistory, overall)
	if err != nil {
		return models.PredictionResult{}, err
	}

	confidence := Confidence(overall)
	rec, risk := Classify(overall, confidence)

	return models.PredictionResult{
		Symbol:         in.Symbol,
		Direction:      DirectionFor(overall),
		Confidence:     confidence,
		OverallScore:   overall,
		TargetPrice:    target,
		TimeHorizon:    in.Timeframe,
		Factors:        factors,
		RiskLevel:      risk,
		Recommendation: rec,
		GeneratedAt:    e.now().UTC(),
	}, nil
}
