package cache

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"finsight-api/pkg/market"
)

// SeriesCache stores fetched bar series in Redis, msgpack-encoded. Bar data is
// upstream-expensive and identical across conversations, so series are shared
// by (ticker, timeframe). All failures are soft: callers fall through to the
// provider on a miss.
type SeriesCache struct {
	rds *redis.Redis
	ttl TTLSet
}

// NewSeriesCache builds a series cache. A nil redis client yields a cache
// whose lookups always miss.
func NewSeriesCache(rds *redis.Redis, ttl TTLSet) *SeriesCache {
	return &SeriesCache{rds: rds, ttl: ttl}
}

// Get returns the cached series for the ticker and timeframe, if present.
func (c *SeriesCache) Get(ctx context.Context, ticker string, timeframe market.Timeframe) (*market.Series, bool) {
	if c == nil || c.rds == nil {
		return nil, false
	}
	key := BarsKey(ticker, string(timeframe))
	raw, err := c.rds.GetCtx(ctx, key)
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: get %s: %v", key, err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var series market.Series
	if err := msgpack.Unmarshal([]byte(raw), &series); err != nil {
		logx.WithContext(ctx).Errorf("cache: decode %s: %v", key, err)
		return nil, false
	}
	return &series, true
}

// Put stores the series under its (ticker, timeframe) key. Empty series are
// not cached so transient upstream gaps do not mask later data.
func (c *SeriesCache) Put(ctx context.Context, series *market.Series) {
	if c == nil || c.rds == nil || series.Len() == 0 {
		return
	}
	raw, err := msgpack.Marshal(series)
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: encode series %s: %v", series.Ticker, err)
		return
	}
	key := BarsKey(series.Ticker, string(series.Timeframe))
	intraday := series.Timeframe == market.Timeframe1D || series.Timeframe == market.Timeframe1W
	ttl := BarsTTL(c.ttl, intraday)
	if ttl <= 0 {
		return
	}
	if err := c.rds.SetexCtx(ctx, key, string(raw), int(ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("cache: set %s: %v", key, err)
	}
}
