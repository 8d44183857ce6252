package market

import "time"

// Timeframe identifies the lookback window requested for a bar series.
type Timeframe string

const (
	Timeframe1D Timeframe = "1D"
	Timeframe1W Timeframe = "1W"
	Timeframe1M Timeframe = "1M"
	Timeframe3M Timeframe = "3M"
	Timeframe6M Timeframe = "6M"
	Timeframe1Y Timeframe = "1Y"
)

// DefaultTimeframe is used when a request does not specify one.
const DefaultTimeframe = Timeframe1M

// Valid reports whether the timeframe is one of the supported windows.
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1D, Timeframe1W, Timeframe1M, Timeframe3M, Timeframe6M, Timeframe1Y:
		return true
	}
	return false
}

// Start returns the calendar start of the lookback window ending at now.
// Month and year windows use calendar arithmetic, not fixed day counts.
func (tf Timeframe) Start(now time.Time) time.Time {
	switch tf {
	case Timeframe1D:
		return now.AddDate(0, 0, -1)
	case Timeframe1W:
		return now.AddDate(0, 0, -7)
	case Timeframe1M:
		return now.AddDate(0, -1, 0)
	case Timeframe3M:
		return now.AddDate(0, -3, 0)
	case Timeframe6M:
		return now.AddDate(0, -6, 0)
	case Timeframe1Y:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// BarInterval returns the sampling granularity used when fetching bars for
// this window: intraday windows sample finer than multi-month ones.
func (tf Timeframe) BarInterval() string {
	switch tf {
	case Timeframe1D:
		return "5Min"
	case Timeframe1W:
		return "1Hour"
	default:
		return "1Day"
	}
}

// Bar is a single sampled OHLCV observation. Bars are immutable once fetched.
type Bar struct {
	Timestamp time.Time `json:"t" msgpack:"t"`
	Open      float64   `json:"o" msgpack:"o"`
	High      float64   `json:"h" msgpack:"h"`
	Low       float64   `json:"l" msgpack:"l"`
	Close     float64   `json:"c" msgpack:"c"`
	Volume    float64   `json:"v" msgpack:"v"`
}

// Series is an ordered run of bars for one (ticker, timeframe, interval)
// triple. Bars are sorted strictly ascending by timestamp with no duplicates.
// A Series is created fresh per request and never mutated afterwards.
type Series struct {
	Ticker    string    `json:"ticker" msgpack:"ticker"`
	Timeframe Timeframe `json:"timeframe" msgpack:"timeframe"`
	Interval  string    `json:"interval" msgpack:"interval"`
	Bars      []Bar     `json:"bars" msgpack:"bars"`
}

// Len returns the number of bars in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Latest returns the most recent bar, if any.
func (s *Series) Latest() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close series, oldest first.
func (s *Series) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.Close
	}
	return out
}

// Highs returns the high series, oldest first.
func (s *Series) Highs() []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.High
	}
	return out
}

// Lows returns the low series, oldest first.
func (s *Series) Lows() []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.Low
	}
	return out
}

// Volumes returns the volume series, oldest first.
func (s *Series) Volumes() []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.Volume
	}
	return out
}

// Quote is the latest bid/ask snapshot for a ticker. Quotes are supplementary
// data: callers treat a missing quote as a soft failure.
type Quote struct {
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   float64   `json:"bid_size"`
	AskSize   float64   `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
}
