package features

import "math"

const (
	RSIPeriod      = 14
	MACDFast       = 12
	MACDSlow       = 26
	MACDSignal     = 9
	BollingerSpan  = 20
	BollingerWidth = 2.0
	SMAShortPeriod = 20
	SMALongPeriod  = 50

	neutralRSI = 50.0
)

// SMA returns the simple moving average of the last `period` values.
// ok is false when fewer than period values are available.
func SMA(xs []float64, period int) (float64, bool) {
	if period <= 0 || len(xs) < period {
		return 0, false
	}
	sum := 0.0
	for _, x := range xs[len(xs)-period:] {
		sum += x
	}
	return sum / float64(period), true
}

// EMASeries returns the exponential moving average for every index from period-1
// onwards, seeded with the SMA of the first period values.
func EMASeries(xs []float64, period int) []float64 {
	if period <= 0 || len(xs) < period {
		return nil
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += xs[i]
	}
	ema := sum / float64(period)
	out := make([]float64, 0, len(xs)-period+1)
	out = append(out, ema)

	k := 2.0 / float64(period+1)
	for i := period; i < len(xs); i++ {
		ema = (xs[i]-ema)*k + ema
		out = append(out, ema)
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) <= period {
		return neutralRSI, false
	}
	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	p := float64(period)
	avgGain := gains / p
	avgLoss := losses / p

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return neutralRSI, true
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MACDHistogram returns MACD line minus its signal line at the latest close.
func MACDHistogram(closes []float64, fast, slow, signal int) (float64, bool) {
	if len(closes) < slow+signal-1 {
		return 0, false
	}
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	// align fast series to the slow series start
	offset := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+offset] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	if len(sig) == 0 {
		return 0, false
	}
	return line[len(line)-1] - sig[len(sig)-1], true
}

// Bollinger returns upper, middle and lower bands over the last `period` closes
// using the population standard deviation.
func Bollinger(closes []float64, period int, width float64) (upper, middle, lower float64, ok bool) {
	middle, ok = SMA(closes, period)
	if !ok {
		return 0, 0, 0, false
	}
	variance := 0.0
	for _, c := range closes[len(closes)-period:] {
		d := c - middle
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return middle + width*sd, middle, middle - width*sd, true
}
