package cache

import (
	"context"

	"finsight-api/pkg/market"
)

// CachedProvider decorates a market.Provider with the series cache. Quotes
// are never cached: a stale bid/ask is worse than none.
type CachedProvider struct {
	next  market.Provider
	cache *SeriesCache
}

// NewCachedProvider wraps next with cached bar lookups.
func NewCachedProvider(next market.Provider, cache *SeriesCache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

func (p *CachedProvider) Bars(ctx context.Context, ticker string, timeframe market.Timeframe) (*market.Series, error) {
	if series, ok := p.cache.Get(ctx, ticker, timeframe); ok {
		return series, nil
	}
	series, err := p.next.Bars(ctx, ticker, timeframe)
	if err != nil {
		return nil, err
	}
	p.cache.Put(ctx, series)
	return series, nil
}

func (p *CachedProvider) LatestQuote(ctx context.Context, ticker string) (*market.Quote, error) {
	return p.next.LatestQuote(ctx, ticker)
}
