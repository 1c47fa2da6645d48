package scoring

import (
	"math"

	"SignalForge/internal/domain/models"
)

// Neutral is the midpoint every component falls back to when its input is undefined.
const Neutral = 0.5

const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0

	rsiAdjust       = 0.20
	macdAdjust      = 0.15
	crossoverAdjust = 0.10

	momentumWindow = 10
	momentumGain   = 5.0

	volumeWindow   = 5
	volumeBaseline = 0.3
	volumeGain     = 0.4
)

// TechnicalScore folds the indicator bundle into a single score in [0,1].
// Adjustments are independent and summed on top of the neutral baseline.
func TechnicalScore(ind models.IndicatorBundle) float64 {
	score := Neutral

	switch {
	case ind.RSI < rsiOversold:
		score += rsiAdjust
	case ind.RSI > rsiOverbought:
		score -= rsiAdjust
	}

	// NaN compares false and is treated as non-positive.
	if ind.MACD > 0 {
		score += macdAdjust
	} else {
		score -= macdAdjust
	}

	if ind.SMAShort > ind.SMALong {
		score += crossoverAdjust
	} else {
		score -= crossoverAdjust
	}

	return Clamp01(score)
}

// MomentumScore compares the mean of the latest 10 prices with the 10 before them.
// Histories of 10 or fewer points are split in half instead.
func MomentumScore(prices []float64) float64 {
	if len(prices) < 2 {
		return Neutral
	}
	older, recent := splitWindows(prices, momentumWindow, 2*momentumWindow)
	base := mean(older)
	if base == 0 {
		return Neutral
	}
	change := (mean(recent) - base) / base
	return Clamp01(Neutral + change*momentumGain)
}

// VolumeScore compares the mean of the latest 5 volumes with the mean of all earlier ones.
// Histories of 5 or fewer points are split in half instead.
func VolumeScore(volumes []float64) float64 {
	if len(volumes) < 2 {
		return Neutral
	}
	earlier, recent := splitWindows(volumes, volumeWindow, len(volumes))
	base := mean(earlier)
	if base == 0 {
		return Neutral
	}
	ratio := mean(recent) / base
	return Clamp01(volumeBaseline + (ratio-1)*volumeGain)
}

// splitWindows returns (older, recent) where recent is the last `recentN` samples and
// older is up to `span-recentN` samples before it. When no older samples exist the
// series is split at its midpoint. Callers guarantee len(xs) >= 2.
func splitWindows(xs []float64, recentN, span int) ([]float64, []float64) {
	n := len(xs)
	if n <= recentN {
		mid := n / 2
		return xs[:mid], xs[mid:]
	}
	cut := n - recentN
	start := n - span
	if start < 0 {
		start = 0
	}
	return xs[start:cut], xs[cut:]
}

// mean divides before summing so finite samples near the float64 limit stay finite.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	n := float64(len(xs))
	m := 0.0
	for _, x := range xs {
		m += x / n
	}
	return m
}

// Clamp01 bounds v to [0,1]; NaN maps to Neutral and infinities to the nearer bound.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return Neutral
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
