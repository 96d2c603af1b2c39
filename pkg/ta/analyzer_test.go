package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingSeries(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = 100 + float64(i) + 0.5*math.Sin(float64(i))
	}
	return data
}

func fallingSeries(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = 200 - float64(i) + 0.5*math.Sin(float64(i))
	}
	return data
}

func TestAnalyzeUptrend(t *testing.T) {
	a := NewAnalyzer()
	closes := risingSeries(a.MinKlines() + 10)

	snap, err := a.Analyze(closes, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, TrendUp, snap.Trend)
	assert.Greater(t, snap.SMAShort, snap.SMALong)
	assert.Greater(t, snap.RSI, 50.0)
	assert.Greater(t, snap.Score, 0.0)
	assert.LessOrEqual(t, snap.Score, 100.0)
	assert.Greater(t, snap.Resistance, snap.Support)
}

func TestAnalyzeDowntrend(t *testing.T) {
	a := NewAnalyzer()
	closes := fallingSeries(a.MinKlines() + 10)

	snap, err := a.Analyze(closes, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, TrendDown, snap.Trend)
	assert.Less(t, snap.RSI, 50.0)
	assert.Less(t, snap.Score, 0.0)
	assert.GreaterOrEqual(t, snap.Score, -100.0)
}

func TestAnalyzeOverboughtSignal(t *testing.T) {
	a := NewAnalyzer()
	closes := make([]float64, a.MinKlines()+5)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}

	snap, err := a.Analyze(closes, nil, nil)
	require.NoError(t, err)

	var names []string
	for _, s := range snap.Signals {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "rsi_overbought")
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := NewAnalyzer()
	_, err := a.Analyze(risingSeries(a.MinKlines()-1), nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSupportResistanceUsesLookbackExtremes(t *testing.T) {
	highs := []float64{10, 50, 20, 30}
	lows := []float64{5, 8, 3, 6}

	support, resistance := supportResistance(highs, lows, 4)
	assert.Equal(t, 3.0, support)
	assert.Equal(t, 50.0, resistance)

	// Lookback shorter than the series ignores older extremes.
	support, resistance = supportResistance(highs, lows, 2)
	assert.Equal(t, 3.0, support)
	assert.Equal(t, 30.0, resistance)
}

func TestTrendClassification(t *testing.T) {
	assert.Equal(t, TrendUp, classifyTrend(110, 105, 100))
	assert.Equal(t, TrendDown, classifyTrend(90, 95, 100))
	assert.Equal(t, TrendSideways, classifyTrend(100, 99, 100))
}
