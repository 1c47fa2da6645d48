package features

import (
	"SignalForge/internal/domain/models"
)

// Closes extracts close prices in candle order.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts traded volume in candle order.
func Volumes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Indicators computes the technical bundle from chronological closes. Each indicator
// without enough history keeps its neutral value: RSI 50, MACD 0, both moving averages
// and the Bollinger middle equal to the last close.
func Indicators(closes []float64) models.IndicatorBundle {
	var b models.IndicatorBundle
	last := 0.0
	if len(closes) > 0 {
		last = closes[len(closes)-1]
	}

	b.RSI, _ = RSI(closes, RSIPeriod)

	if h, ok := MACDHistogram(closes, MACDFast, MACDSlow, MACDSignal); ok {
		b.MACD = h
	}

	if up, mid, lo, ok := Bollinger(closes, BollingerSpan, BollingerWidth); ok {
		b.Bollinger = models.Bands{Upper: up, Middle: mid, Lower: lo}
	} else {
		b.Bollinger = models.Bands{Upper: last, Middle: last, Lower: last}
	}

	short, okShort := SMA(closes, SMAShortPeriod)
	long, okLong := SMA(closes, SMALongPeriod)
	switch {
	case okShort && okLong:
		b.SMAShort, b.SMALong = short, long
	case okShort:
		b.SMAShort, b.SMALong = short, short
	default:
		b.SMAShort, b.SMALong = last, last
	}
	return b
}

// BuildInput assembles a scoring input from stored candles.
func BuildInput(symbol string, tf models.Timeframe, candles []models.Candle, sentiment, newsImpact float64) models.PredictionInput {
	closes := Closes(candles)
	return models.PredictionInput{
		Symbol:        symbol,
		Timeframe:     tf,
		PriceHistory:  closes,
		VolumeHistory: Volumes(candles),
		Indicators:    Indicators(closes),
		Sentiment:     sentiment,
		NewsImpact:    newsImpact,
	}
}
