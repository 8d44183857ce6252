package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	defaultDataBaseURL = "https://data.alpaca.markets"
	defaultHTTPTimeout = 10 * time.Second
	maxBarsPerRequest  = 10000
	dataFeed           = "sip"

	headerAPIKey    = "APCA-API-KEY-ID"
	headerAPISecret = "APCA-API-SECRET-KEY"
)

// Credentials holds the Alpaca API key pair.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Client fetches bar history and quotes from the Alpaca market data API.
// Calls are made once with no retries: bar data is request-scoped and a
// failed fetch is surfaced to the caller immediately.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *log.Logger
	nowFn      func() time.Time
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the data API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used to anchor lookback windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.nowFn = now
		}
	}
}

// NewClient constructs an Alpaca market data client.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if strings.TrimSpace(creds.APIKey) == "" || strings.TrimSpace(creds.APISecret) == "" {
		return nil, ErrNoCredentials
	}
	client := &Client{
		baseURL:    defaultDataBaseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     log.Default(),
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type barPayload struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type barsResponse struct {
	Bars   []barPayload `json:"bars"`
	Symbol string       `json:"symbol"`
}

type quotePayload struct {
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
	BidSize   float64   `json:"bs"`
	AskSize   float64   `json:"as"`
	Timestamp time.Time `json:"t"`
}

type quoteResponse struct {
	Quote quotePayload `json:"quote"`
}

// GetHistoricalBars fetches the bar series for ticker over the given
// timeframe. The lookback window uses calendar arithmetic and the bar
// granularity follows the window (5Min for 1D, 1Hour for 1W, 1Day otherwise).
func (c *Client) GetHistoricalBars(ctx context.Context, ticker string, timeframe Timeframe) (*Series, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("market: ticker is required")
	}
	if !timeframe.Valid() {
		timeframe = DefaultTimeframe
	}

	end := c.nowFn().UTC()
	start := timeframe.Start(end)
	interval := timeframe.BarInterval()

	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("timeframe", interval)
	params.Set("limit", fmt.Sprint(maxBarsPerRequest))
	params.Set("adjustment", "all")
	params.Set("feed", dataFeed)
	params.Set("asof", end.Format(time.RFC3339))

	var payload barsResponse
	endpoint := fmt.Sprintf("/v2/stocks/%s/bars", ticker)
	if err := c.doGet(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(payload.Bars))
	for _, b := range payload.Bars {
		bars = append(bars, Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	bars = dedupeBars(bars)

	return &Series{
		Ticker:    ticker,
		Timeframe: timeframe,
		Interval:  interval,
		Bars:      bars,
	}, nil
}

// GetLatestQuote fetches the latest bid/ask for ticker. Callers treat any
// error as "no quote": the quote is supplementary to the bar series.
func (c *Client) GetLatestQuote(ctx context.Context, ticker string) (*Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("market: ticker is required")
	}

	params := url.Values{}
	params.Set("feed", dataFeed)

	var payload quoteResponse
	endpoint := fmt.Sprintf("/v2/stocks/%s/quotes/latest", ticker)
	if err := c.doGet(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	return &Quote{
		Bid:       payload.Quote.BidPrice,
		Ask:       payload.Quote.AskPrice,
		BidSize:   payload.Quote.BidSize,
		AskSize:   payload.Quote.AskSize,
		Timestamp: payload.Quote.Timestamp,
	}, nil
}

// doGet performs a single authenticated GET and decodes the response into
// result. Transport and non-2xx failures are wrapped in *UpstreamError.
func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("market: build request: %w", err)
	}
	httpReq.Header.Set(headerAPIKey, c.creds.APIKey)
	httpReq.Header.Set(headerAPISecret, c.creds.APISecret)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("market: %s returned http %d", endpoint, resp.StatusCode)
		return &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// dedupeBars drops bars that repeat the previous timestamp. Input must be
// sorted ascending.
func dedupeBars(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, bar := range bars[1:] {
		if bar.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, bar)
	}
	return out
}
