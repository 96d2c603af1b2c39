package ta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, got)
}

func TestSMAWindowEqualsLength(t *testing.T) {
	got, err := SMA([]float64{2, 4, 6}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, got)
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SMA([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SMA(nil, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMASeededWithSMA(t *testing.T) {
	got, err := EMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.5, got[0], 1e-9)
	assert.InDelta(t, 2.5, got[1], 1e-9)
	assert.InDelta(t, 3.5, got[2], 1e-9)
}

func TestRSIExtremes(t *testing.T) {
	up := make([]float64, 20)
	down := make([]float64, 20)
	for i := range up {
		up[i] = float64(i + 1)
		down[i] = float64(20 - i)
	}

	rsiUp, err := RSI(up, DefaultRSIPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 100, last(rsiUp), 1e-9)

	rsiDown, err := RSI(down, DefaultRSIPeriod)
	require.NoError(t, err)
	assert.InDelta(t, 0, last(rsiDown), 1e-9)
}

func TestRSIBounds(t *testing.T) {
	data := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22}
	rsi, err := RSI(data, DefaultRSIPeriod)
	require.NoError(t, err)
	require.Len(t, rsi, len(data)-DefaultRSIPeriod)
	for _, v := range rsi {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI(make([]float64, DefaultRSIPeriod), DefaultRSIPeriod)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACDAlignment(t *testing.T) {
	data := make([]float64, 60)
	for i := range data {
		data[i] = 100 + float64(i)
	}

	macd, err := MACD(data, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.NoError(t, err)

	assert.Len(t, macd.Line, len(data)-DefaultMACDSlow+1)
	assert.Len(t, macd.Signal, len(macd.Line)-DefaultMACDSignal+1)
	assert.Len(t, macd.Histogram, len(macd.Signal))

	// Steadily rising prices keep the fast EMA above the slow one.
	assert.Greater(t, last(macd.Line), 0.0)
}

func TestMACDInsufficientData(t *testing.T) {
	_, err := MACD(make([]float64, 10), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBollingerBandsFlatSeries(t *testing.T) {
	data := make([]float64, 25)
	for i := range data {
		data[i] = 50
	}

	bands, err := BollingerBands(data, 20, 2)
	require.NoError(t, err)
	require.Len(t, bands.Middle, 6)
	assert.InDelta(t, 50, last(bands.Middle), 1e-9)
	assert.InDelta(t, 50, last(bands.Upper), 1e-9)
	assert.InDelta(t, 50, last(bands.Lower), 1e-9)
}

func TestBollingerBandsEnvelope(t *testing.T) {
	data := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17, 19, 18, 20, 19, 21, 20, 22}
	bands, err := BollingerBands(data, 20, 2)
	require.NoError(t, err)
	for i := range bands.Middle {
		assert.Greater(t, bands.Upper[i], bands.Middle[i])
		assert.Less(t, bands.Lower[i], bands.Middle[i])
	}
}

func TestStochastic(t *testing.T) {
	high := []float64{10, 11, 12, 13, 14, 15}
	low := []float64{8, 9, 10, 11, 12, 13}
	close := []float64{9, 10, 11, 12, 13, 15}

	res, err := Stochastic(high, low, close, 3, 2)
	require.NoError(t, err)
	require.Len(t, res.K, 4)
	require.Len(t, res.D, 3)

	// Final close equals the period high, so %K is 100.
	assert.InDelta(t, 100, last(res.K), 1e-9)
}

func TestStochasticMismatchedSeries(t *testing.T) {
	_, err := Stochastic([]float64{1, 2}, []float64{1}, []float64{1, 2}, 2, 1)
	assert.Error(t, err)
}
