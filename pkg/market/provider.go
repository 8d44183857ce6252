package market

import (
	"context"
	"time"
)

const defaultRequestTimeout = 8 * time.Second

// Provider exposes instrument bar history and quotes without tying callers to
// a concrete upstream client.
type Provider interface {
	// Bars returns the bar series for the ticker over the timeframe.
	Bars(ctx context.Context, ticker string, timeframe Timeframe) (*Series, error)
	// LatestQuote returns the most recent bid/ask for the ticker.
	LatestQuote(ctx context.Context, ticker string) (*Quote, error)
}

// AlpacaProvider implements Provider via the Alpaca data API.
type AlpacaProvider struct {
	client  *Client
	timeout time.Duration
}

// ProviderOption customises the Alpaca provider.
type ProviderOption func(*AlpacaProvider)

// WithClient injects a custom Alpaca client.
func WithClient(client *Client) ProviderOption {
	return func(p *AlpacaProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *AlpacaProvider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewAlpacaProvider constructs a provider from explicit credentials.
func NewAlpacaProvider(creds Credentials, opts ...ProviderOption) (*AlpacaProvider, error) {
	provider := &AlpacaProvider{timeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(provider)
	}
	if provider.client == nil {
		client, err := NewClient(creds)
		if err != nil {
			return nil, err
		}
		provider.client = client
	}
	return provider, nil
}

// Bars fetches the bar series with the provider's request timeout applied.
func (p *AlpacaProvider) Bars(ctx context.Context, ticker string, timeframe Timeframe) (*Series, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.GetHistoricalBars(ctx, ticker, timeframe)
}

// LatestQuote fetches the latest quote with the provider's request timeout applied.
func (p *AlpacaProvider) LatestQuote(ctx context.Context, ticker string) (*Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.GetLatestQuote(ctx, ticker)
}
