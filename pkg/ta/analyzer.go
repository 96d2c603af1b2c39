package ta

import (
	"math"

	"asterex/pkg/core"
)

// Trend classifies the direction of a price series.
type Trend int

// Trend values.
const (
	TrendSideways Trend = iota
	TrendUp
	TrendDown
)

// String returns the string representation of the trend.
func (t Trend) String() string {
	return [...]string{"SIDEWAYS", "UP", "DOWN"}[t]
}

// Signal is one indicator-derived trading signal.
type Signal struct {
	// Name identifies the rule that fired (e.g. "rsi_oversold").
	Name string `json:"name"`
	// Bullish is true for buy-side signals.
	Bullish bool `json:"bullish"`
	// Note is a short human-readable explanation.
	Note string `json:"note"`
}

// Analysis is a full indicator snapshot for one symbol.
type Analysis struct {
	LastPrice float64 `json:"last_price"`

	SMAShort float64 `json:"sma_short"`
	SMALong  float64 `json:"sma_long"`
	RSI      float64 `json:"rsi"`

	MACDLine      float64 `json:"macd_line"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`

	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`

	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`

	Trend   Trend    `json:"trend"`
	Signals []Signal `json:"signals"`
	// Score is a composite momentum score in [-100, 100], positive for
	// bullish conditions. Used to rank symbols in market scans.
	Score float64 `json:"score"`
}

// Analyzer computes indicator snapshots from kline series. Periods are
// configurable; NewAnalyzer applies the conventional defaults
// (20/50 SMA, 14 RSI, 12/26/9 MACD, 20-period Bollinger at 2 sigma).
type Analyzer struct {
	SMAShortPeriod  int
	SMALongPeriod   int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerMult   float64
}

// NewAnalyzer returns an Analyzer with default periods.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		SMAShortPeriod:  20,
		SMALongPeriod:   50,
		RSIPeriod:       DefaultRSIPeriod,
		MACDFast:        DefaultMACDFast,
		MACDSlow:        DefaultMACDSlow,
		MACDSignal:      DefaultMACDSignal,
		BollingerPeriod: 20,
		BollingerMult:   2,
	}
}

// MinKlines returns the number of klines needed for a full snapshot.
func (a *Analyzer) MinKlines() int {
	need := a.SMALongPeriod
	if macd := a.MACDSlow + a.MACDSignal - 1; macd > need {
		need = macd
	}
	if a.RSIPeriod+1 > need {
		need = a.RSIPeriod + 1
	}
	return need
}

// AnalyzeKlines runs the full analysis over a kline series, oldest first.
func (a *Analyzer) AnalyzeKlines(klines []core.Kline) (*Analysis, error) {
	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))
	for i := range klines {
		closes[i], _ = klines[i].Close.Float64()
		highs[i], _ = klines[i].High.Float64()
		lows[i], _ = klines[i].Low.Float64()
	}
	return a.Analyze(closes, highs, lows)
}

// Analyze computes the snapshot from raw series. Highs and lows may be nil,
// in which case support and resistance fall back to the close series.
func (a *Analyzer) Analyze(closes, highs, lows []float64) (*Analysis, error) {
	if len(closes) < a.MinKlines() {
		return nil, ErrInsufficientData
	}
	if highs == nil {
		highs = closes
	}
	if lows == nil {
		lows = closes
	}

	smaShort, err := SMA(closes, a.SMAShortPeriod)
	if err != nil {
		return nil, err
	}
	smaLong, err := SMA(closes, a.SMALongPeriod)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(closes, a.RSIPeriod)
	if err != nil {
		return nil, err
	}
	macd, err := MACD(closes, a.MACDFast, a.MACDSlow, a.MACDSignal)
	if err != nil {
		return nil, err
	}
	bands, err := BollingerBands(closes, a.BollingerPeriod, a.BollingerMult)
	if err != nil {
		return nil, err
	}

	support, resistance := supportResistance(highs, lows, a.SMALongPeriod)

	result := &Analysis{
		LastPrice:      closes[len(closes)-1],
		SMAShort:       last(smaShort),
		SMALong:        last(smaLong),
		RSI:            last(rsi),
		MACDLine:       last(macd.Line),
		MACDSignal:     last(macd.Signal),
		MACDHistogram:  last(macd.Histogram),
		BollingerUpper: last(bands.Upper),
		BollingerLower: last(bands.Lower),
		Support:        support,
		Resistance:     resistance,
	}
	result.Trend = classifyTrend(result.LastPrice, result.SMAShort, result.SMALong)
	result.Signals = a.signals(result, macd)
	result.Score = a.score(result)
	return result, nil
}

// signals derives rule-based signals from the snapshot.
func (a *Analyzer) signals(snap *Analysis, macd *MACDResult) []Signal {
	signals := make([]Signal, 0, 4)

	switch {
	case snap.RSI <= 30:
		signals = append(signals, Signal{Name: "rsi_oversold", Bullish: true, Note: "RSI at or below 30"})
	case snap.RSI >= 70:
		signals = append(signals, Signal{Name: "rsi_overbought", Bullish: false, Note: "RSI at or above 70"})
	}

	// MACD crossover: histogram sign flip on the last two points.
	if n := len(macd.Histogram); n >= 2 {
		prev, curr := macd.Histogram[n-2], macd.Histogram[n-1]
		if prev <= 0 && curr > 0 {
			signals = append(signals, Signal{Name: "macd_bullish_cross", Bullish: true, Note: "MACD crossed above signal"})
		}
		if prev >= 0 && curr < 0 {
			signals = append(signals, Signal{Name: "macd_bearish_cross", Bullish: false, Note: "MACD crossed below signal"})
		}
	}

	if snap.LastPrice <= snap.BollingerLower {
		signals = append(signals, Signal{Name: "bollinger_lower_touch", Bullish: true, Note: "price at lower band"})
	}
	if snap.LastPrice >= snap.BollingerUpper {
		signals = append(signals, Signal{Name: "bollinger_upper_touch", Bullish: false, Note: "price at upper band"})
	}

	if snap.Trend == TrendUp && snap.LastPrice > snap.SMAShort {
		signals = append(signals, Signal{Name: "trend_up", Bullish: true, Note: "price above rising averages"})
	}
	if snap.Trend == TrendDown && snap.LastPrice < snap.SMAShort {
		signals = append(signals, Signal{Name: "trend_down", Bullish: false, Note: "price below falling averages"})
	}

	return signals
}

// score folds the snapshot into a single momentum score for scan ranking.
func (a *Analyzer) score(snap *Analysis) float64 {
	var score float64

	// RSI distance from neutral, scaled so extremes contribute up to 40.
	score += (snap.RSI - 50) * 0.8

	// Trend contributes 30 either way.
	switch snap.Trend {
	case TrendUp:
		score += 30
	case TrendDown:
		score -= 30
	}

	// MACD histogram direction, scaled by price, contributes up to 30.
	if snap.LastPrice > 0 {
		contribution := snap.MACDHistogram / snap.LastPrice * 10000
		score += math.Max(-30, math.Min(30, contribution))
	}

	return math.Max(-100, math.Min(100, score))
}

func classifyTrend(price, smaShort, smaLong float64) Trend {
	switch {
	case smaShort > smaLong && price > smaLong:
		return TrendUp
	case smaShort < smaLong && price < smaLong:
		return TrendDown
	default:
		return TrendSideways
	}
}

// supportResistance takes the extremes of the trailing lookback window.
func supportResistance(highs, lows []float64, lookback int) (support, resistance float64) {
	if lookback > len(lows) {
		lookback = len(lows)
	}
	start := len(lows) - lookback
	support, resistance = lows[start], highs[start]
	for i := start + 1; i < len(lows); i++ {
		support = math.Min(support, lows[i])
		resistance = math.Max(resistance, highs[i])
	}
	return support, resistance
}

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
