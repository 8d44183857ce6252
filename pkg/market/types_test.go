package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeframeStartCalendarArithmetic(t *testing.T) {
	// March 31 exercises month-end clamping in AddDate.
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		tf   Timeframe
		want time.Time
	}{
		{Timeframe1D, time.Date(2024, time.March, 30, 12, 0, 0, 0, time.UTC)},
		{Timeframe1W, time.Date(2024, time.March, 24, 12, 0, 0, 0, time.UTC)},
		{Timeframe1M, time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)},
		{Timeframe3M, time.Date(2023, time.December, 31, 12, 0, 0, 0, time.UTC)},
		{Timeframe6M, time.Date(2023, time.October, 1, 12, 0, 0, 0, time.UTC)},
		{Timeframe1Y, time.Date(2023, time.March, 31, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.tf.Start(now), "timeframe %s", tt.tf)
	}
}

func TestTimeframeBarInterval(t *testing.T) {
	require.Equal(t, "5Min", Timeframe1D.BarInterval())
	require.Equal(t, "1Hour", Timeframe1W.BarInterval())
	require.Equal(t, "1Day", Timeframe1M.BarInterval())
	require.Equal(t, "1Day", Timeframe1Y.BarInterval())
}

func TestTimeframeValid(t *testing.T) {
	require.True(t, Timeframe3M.Valid())
	require.False(t, Timeframe("2W").Valid())
	require.False(t, Timeframe("").Valid())
}

func TestSeriesAccessorsNilSafe(t *testing.T) {
	var s *Series
	require.Equal(t, 0, s.Len())

	s = &Series{Bars: []Bar{
		{Close: 10, High: 11, Low: 9, Volume: 100},
		{Close: 12, High: 13, Low: 11, Volume: 200},
	}}
	require.Equal(t, []float64{10, 12}, s.Closes())
	require.Equal(t, []float64{11, 13}, s.Highs())
	require.Equal(t, []float64{9, 11}, s.Lows())
	require.Equal(t, []float64{100, 200}, s.Volumes())

	latest, ok := s.Latest()
	require.True(t, ok)
	require.Equal(t, float64(12), latest.Close)
}
