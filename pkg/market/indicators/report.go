package indicators

import (
	"errors"
	"math"

	"finsight-api/pkg/market"
)

// ErrInsufficientData is returned when a report is requested for an empty
// series. Individual metrics degrade to absent values on short windows; only
// a completely empty series aborts the computation.
var ErrInsufficientData = errors.New("indicators: no bars available for computation")

// yearWindow is the number of trailing observations used for the 52-window
// high/low. The scan runs over the close series, not intraday highs/lows,
// mirroring the reference calculations.
const yearWindow = 252

// Report is the fixed-shape indicator set derived from one bar series.
// Pointer fields are nil when the series is too short for that metric; no
// field ever carries NaN or Inf. A report is computed once per request,
// rendered into text, and discarded.
type Report struct {
	CurrentPrice       float64 `json:"current_price"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`

	SMA10 *float64 `json:"sma_10,omitempty"`
	SMA20 *float64 `json:"sma_20,omitempty"`
	SMA50 *float64 `json:"sma_50,omitempty"`
	EMA12 *float64 `json:"ema_12,omitempty"`
	EMA26 *float64 `json:"ema_26,omitempty"`

	RSI14      float64          `json:"rsi_14"`
	MACD       *MACDValue       `json:"macd,omitempty"`
	Stochastic *StochasticValue `json:"stochastic,omitempty"`

	Bollinger     *BollingerValue `json:"bollinger_bands,omitempty"`
	ATR14         *float64        `json:"atr_14,omitempty"`
	Volatility30D *float64        `json:"volatility_30d,omitempty"`

	OBV         float64  `json:"obv"`
	VolumeSMA20 *float64 `json:"volume_sma_20,omitempty"`
	VolumeRatio *float64 `json:"volume_ratio,omitempty"`

	SupportLevels    []float64   `json:"support_levels,omitempty"`
	ResistanceLevels []float64   `json:"resistance_levels,omitempty"`
	Pivot            *PivotValue `json:"pivot_point,omitempty"`

	High52W *float64 `json:"high_52w,omitempty"`
	Low52W  *float64 `json:"low_52w,omitempty"`
}

// Compute derives the full indicator report from a bar series. It fails only
// when the series is empty; every period-dependent metric degrades to an
// absent value on its own when the window is too short.
func Compute(series *market.Series) (*Report, error) {
	if series.Len() == 0 {
		return nil, ErrInsufficientData
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	latest := series.Bars[len(series.Bars)-1]

	report := &Report{
		CurrentPrice: latest.Close,
		RSI14:        RSI(closes, 14),
		OBV:          OBV(closes, volumes),
	}

	if len(series.Bars) > 1 {
		previous := series.Bars[len(series.Bars)-2]
		report.PriceChange = latest.Close - previous.Close
		if previous.Close != 0 {
			report.PriceChangePercent = report.PriceChange / previous.Close * 100
		}
	}

	report.SMA10 = maybeSMA(closes, 10)
	report.SMA20 = maybeSMA(closes, 20)
	report.SMA50 = maybeSMA(closes, 50)
	report.EMA12 = maybeEMA(closes, 12)
	report.EMA26 = maybeEMA(closes, 26)

	if macd, ok := MACD(closes); ok {
		report.MACD = &macd
	}
	stoch := Stochastic(highs, lows, closes, 14)
	report.Stochastic = &stoch

	if bands, ok := Bollinger(closes, 20); ok {
		report.Bollinger = &bands
	}
	if atr, ok := ATR(highs, lows, closes, 14); ok {
		report.ATR14 = &atr
	}
	if vol, ok := RealizedVolatility(closes, 30); ok {
		report.Volatility30D = &vol
	}

	report.VolumeSMA20 = maybeSMA(volumes, 20)
	if report.VolumeSMA20 != nil && *report.VolumeSMA20 > 0 {
		ratio := latest.Volume / *report.VolumeSMA20
		report.VolumeRatio = &ratio
	}

	report.SupportLevels = SupportLevels(lows)
	report.ResistanceLevels = ResistanceLevels(highs)
	pivot := PivotPoints(latest.High, latest.Low, latest.Close)
	report.Pivot = &pivot

	yearCloses := closes
	if len(yearCloses) > yearWindow {
		yearCloses = yearCloses[len(yearCloses)-yearWindow:]
	}
	high := yearCloses[0]
	low := yearCloses[0]
	for _, c := range yearCloses[1:] {
		high = math.Max(high, c)
		low = math.Min(low, c)
	}
	report.High52W = &high
	report.Low52W = &low

	return report, nil
}

func maybeSMA(values []float64, period int) *float64 {
	if v, ok := SMA(values, period); ok {
		return &v
	}
	return nil
}

func maybeEMA(values []float64, period int) *float64 {
	if v, ok := EMA(values, period); ok {
		return &v
	}
	return nil
}
