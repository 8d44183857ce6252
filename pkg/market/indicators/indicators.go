package indicators

import "math"

// SMA returns the arithmetic mean of the last period values. ok is false when
// fewer than period values are available.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA seeds with the SMA of the first period values and applies the standard
// recurrence over the remainder of the series. ok is false when fewer than
// period values are available.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	multiplier := 2.0 / float64(period+1)
	ema, _ := SMA(values[:period], period)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema, true
}

// RSI computes the Relative Strength Index over the last period deltas.
// With insufficient history it returns the neutral value 50 rather than an
// absent marker; 50 here means "no signal", not a measured midpoint.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDValue is the MACD line, its signal line, and their difference.
type MACDValue struct {
	Line      float64 `json:"macd_line"`
	Signal    float64 `json:"signal_line"`
	Histogram float64 `json:"histogram"`
}

// MACD computes EMA12-EMA26 and derives the signal as 0.9x the line. A true
// signal line is a 9-period EMA of the MACD series; the 0.9 scaling is a
// pinned simplification carried over from the reference calculations, kept so
// downstream consumers see stable numbers. ok is false when the series is
// shorter than the slow EMA window.
func MACD(closes []float64) (MACDValue, bool) {
	ema12, ok12 := EMA(closes, 12)
	ema26, ok26 := EMA(closes, 26)
	if !ok12 || !ok26 {
		return MACDValue{}, false
	}
	line := ema12 - ema26
	signal := line * 0.9
	return MACDValue{Line: line, Signal: signal, Histogram: line - signal}, true
}

// StochasticValue holds the %K/%D oscillator pair.
type StochasticValue struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// Stochastic computes %K over the trailing period window. %D is pinned at
// 0.9x %K (a true %D is a 3-period SMA of %K; same caveat as the MACD
// signal). Returns the neutral {50, 50} with insufficient history or a flat
// window.
func Stochastic(highs, lows, closes []float64, period int) StochasticValue {
	if period <= 0 || len(closes) < period || len(highs) < period || len(lows) < period {
		return StochasticValue{K: 50, D: 50}
	}
	highest := math.Inf(-1)
	for _, h := range highs[len(highs)-period:] {
		if h > highest {
			highest = h
		}
	}
	lowest := math.Inf(1)
	for _, l := range lows[len(lows)-period:] {
		if l < lowest {
			lowest = l
		}
	}
	if highest == lowest {
		return StochasticValue{K: 50, D: 50}
	}
	k := (closes[len(closes)-1] - lowest) / (highest - lowest) * 100
	return StochasticValue{K: k, D: k * 0.9}
}

// BollingerValue holds the three Bollinger band levels.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes the period SMA band with upper/lower at two population
// standard deviations. ok is false with insufficient history.
func Bollinger(closes []float64, period int) (BollingerValue, bool) {
	middle, ok := SMA(closes, period)
	if !ok {
		return BollingerValue{}, false
	}
	sd := stddev(closes[len(closes)-period:])
	return BollingerValue{
		Upper:  middle + 2*sd,
		Middle: middle,
		Lower:  middle - 2*sd,
	}, true
}

// ATR computes the average true range: the SMA over the last period true
// ranges, where each true range is the largest of high-low, |high-prevClose|
// and |low-prevClose|. ok is false when fewer than period+1 bars are
// available.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	if period <= 0 || len(highs) < period+1 {
		return 0, false
	}
	trueRanges := make([]float64, 0, len(highs)-1)
	for i := 1; i < len(highs); i++ {
		highLow := highs[i] - lows[i]
		highClose := math.Abs(highs[i] - closes[i-1])
		lowClose := math.Abs(lows[i] - closes[i-1])
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highClose, lowClose)))
	}
	return SMA(trueRanges, period)
}

// RealizedVolatility computes the annualized standard deviation of simple
// returns over the trailing period window, scaled by sqrt(252) and expressed
// as a percentage. ok is false with insufficient history.
func RealizedVolatility(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	subset := closes
	if len(subset) > period+1 {
		subset = subset[len(subset)-period-1:]
	}
	returns := make([]float64, 0, len(subset)-1)
	for i := 1; i < len(subset); i++ {
		returns = append(returns, (subset[i]-subset[i-1])/subset[i-1])
	}
	if len(returns) == 0 {
		return 0, false
	}
	return stddev(returns) * math.Sqrt(252) * 100, true
}

// OBV computes on-balance volume starting at zero: volume is added on an up
// close, subtracted on a down close, and skipped on a tie.
func OBV(closes, volumes []float64) float64 {
	obv := 0.0
	for i := 1; i < len(closes) && i < len(volumes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
	}
	return obv
}

// levelWindow is the number of bars scanned on each side of a candidate
// support/resistance point.
const levelWindow = 10

// maxLevels caps how many support/resistance levels are reported.
const maxLevels = 3

// SupportLevels scans lows for points that are the minimum of their 21-bar
// neighborhood and returns the last 3 unique levels in scan order. Levels are
// de-duplicated by value before truncation, so a repeated historical level
// keeps its first scan position.
func SupportLevels(lows []float64) []float64 {
	return localLevels(lows, false)
}

// ResistanceLevels is the high-side counterpart of SupportLevels.
func ResistanceLevels(highs []float64) []float64 {
	return localLevels(highs, true)
}

func localLevels(values []float64, findMax bool) []float64 {
	var levels []float64
	seen := make(map[float64]struct{})
	for i := levelWindow; i < len(values)-levelWindow; i++ {
		current := values[i]
		qualifies := true
		for j := i - levelWindow; j <= i+levelWindow; j++ {
			if findMax && values[j] > current {
				qualifies = false
				break
			}
			if !findMax && values[j] < current {
				qualifies = false
				break
			}
		}
		if !qualifies {
			continue
		}
		if _, dup := seen[current]; dup {
			continue
		}
		seen[current] = struct{}{}
		levels = append(levels, current)
	}
	if len(levels) > maxLevels {
		levels = levels[len(levels)-maxLevels:]
	}
	return levels
}

// PivotValue holds the classic pivot level set.
type PivotValue struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
}

// PivotPoints computes the classic pivot levels from a bar's high/low/close.
func PivotPoints(high, low, close float64) PivotValue {
	pivot := (high + low + close) / 3
	return PivotValue{
		Pivot: pivot,
		R1:    2*pivot - low,
		R2:    pivot + (high - low),
		S1:    2*pivot - high,
		S2:    pivot - (high - low),
	}
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
