package scoring

// SentimentScore passes an upstream-normalized sentiment scalar through as the
// sentiment component. Out-of-range values are clamped and NaN becomes Neutral.
func SentimentScore(v float64) float64 {
	return Clamp01(v)
}

// FromPolarity maps a [-1,1] polarity score onto the [0,1] sentiment scale.
func FromPolarity(score float64) float64 {
	return Clamp01((score + 1) / 2)
}
