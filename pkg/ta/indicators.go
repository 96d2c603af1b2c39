// Package ta implements technical-analysis indicators as pure functions
// over chronological price series (oldest first). Results are
// trailing-aligned: the first output element corresponds to the first index
// at which the indicator has a full window of input.
package ta

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when a series is shorter than the
// requested window or the window is not positive.
var ErrInsufficientData = errors.New("insufficient data for indicator window")

// Default indicator periods.
const (
	DefaultRSIPeriod  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// SMA returns the simple moving average with the given window. The result
// has len(data)-window+1 elements; result[i] averages data[i:i+window].
func SMA(data []float64, window int) ([]float64, error) {
	if window < 1 || window > len(data) {
		return nil, ErrInsufficientData
	}
	out := make([]float64, 0, len(data)-window+1)
	var sum float64
	for i, v := range data {
		sum += v
		if i >= window {
			sum -= data[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out, nil
}

// EMA returns the exponential moving average with the given window, seeded
// with the SMA of the first window. The result has len(data)-window+1
// elements.
func EMA(data []float64, window int) ([]float64, error) {
	if window < 1 || window > len(data) {
		return nil, ErrInsufficientData
	}
	out := make([]float64, 0, len(data)-window+1)

	var seed float64
	for _, v := range data[:window] {
		seed += v
	}
	seed /= float64(window)
	out = append(out, seed)

	alpha := 2.0 / float64(window+1)
	prev := seed
	for _, v := range data[window:] {
		prev = (v-prev)*alpha + prev
		out = append(out, prev)
	}
	return out, nil
}

// RSI returns the relative strength index over the given period using
// Wilder smoothing. It needs at least period+1 data points and returns
// len(data)-period values in [0, 100].
func RSI(data []float64, period int) ([]float64, error) {
	if period < 1 || len(data) < period+1 {
		return nil, ErrInsufficientData
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := data[i] - data[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(data)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(data); i++ {
		change := data[i] - data[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the MACD line, its signal line, and the histogram.
// Line has len(data)-slow+1 elements; Signal and Histogram are shorter by
// signal-1 and aligned to the end of Line.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD returns the moving average convergence/divergence for the given
// fast, slow, and signal periods.
func MACD(data []float64, fast, slow, signal int) (*MACDResult, error) {
	if fast < 1 || slow <= fast || signal < 1 {
		return nil, ErrInsufficientData
	}
	if len(data) < slow+signal-1 {
		return nil, ErrInsufficientData
	}

	emaFast, err := EMA(data, fast)
	if err != nil {
		return nil, err
	}
	emaSlow, err := EMA(data, slow)
	if err != nil {
		return nil, err
	}

	// Align the fast EMA to the slow one's tail.
	offset := len(emaFast) - len(emaSlow)
	line := make([]float64, len(emaSlow))
	for i := range emaSlow {
		line[i] = emaFast[i+offset] - emaSlow[i]
	}

	signalLine, err := EMA(line, signal)
	if err != nil {
		return nil, err
	}

	histogram := make([]float64, len(signalLine))
	tail := len(line) - len(signalLine)
	for i := range signalLine {
		histogram[i] = line[i+tail] - signalLine[i]
	}

	return &MACDResult{Line: line, Signal: signalLine, Histogram: histogram}, nil
}

// Bands holds Bollinger band series, all trailing-aligned with
// len(data)-window+1 elements.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands returns bands at mult standard deviations around the SMA.
func BollingerBands(data []float64, window int, mult float64) (*Bands, error) {
	middle, err := SMA(data, window)
	if err != nil {
		return nil, err
	}

	bands := &Bands{
		Upper:  make([]float64, len(middle)),
		Middle: middle,
		Lower:  make([]float64, len(middle)),
	}
	for i := range middle {
		var variance float64
		for _, v := range data[i : i+window] {
			d := v - middle[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(window))
		bands.Upper[i] = middle[i] + mult*sd
		bands.Lower[i] = middle[i] - mult*sd
	}
	return bands, nil
}

// StochasticResult holds the %K and %D oscillator series. D is shorter
// than K by dPeriod-1 and aligned to its end.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic returns the stochastic oscillator for matched high, low, and
// close series.
func Stochastic(high, low, close []float64, kPeriod, dPeriod int) (*StochasticResult, error) {
	if len(high) != len(low) || len(low) != len(close) {
		return nil, errors.New("high, low, and close series must have equal length")
	}
	if kPeriod < 1 || dPeriod < 1 || len(close) < kPeriod+dPeriod-1 {
		return nil, ErrInsufficientData
	}

	k := make([]float64, 0, len(close)-kPeriod+1)
	for i := kPeriod - 1; i < len(close); i++ {
		hh, ll := high[i-kPeriod+1], low[i-kPeriod+1]
		for j := i - kPeriod + 2; j <= i; j++ {
			hh = math.Max(hh, high[j])
			ll = math.Min(ll, low[j])
		}
		if hh == ll {
			k = append(k, 50)
			continue
		}
		k = append(k, (close[i]-ll)/(hh-ll)*100)
	}

	d, err := SMA(k, dPeriod)
	if err != nil {
		return nil, err
	}
	return &StochasticResult{K: k, D: d}, nil
}
