// Package enrich augments LLM instructions with computed market data.
// Enrichment is strictly best-effort: any upstream or computation failure
// falls back to the caller's unmodified instructions.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/pkg/market"
	"finsight-api/pkg/market/indicators"
)

// Enricher builds the market data block injected into chat instructions.
// It is constructed from an explicit market config; there is no shared
// provider state between requests.
type Enricher struct {
	cfg      *market.Config
	provider market.Provider
}

// EnricherOption customises the enricher.
type EnricherOption func(*Enricher)

// WithProvider injects a custom market data provider (primarily for tests).
func WithProvider(p market.Provider) EnricherOption {
	return func(e *Enricher) {
		if p != nil {
			e.provider = p
		}
	}
}

// NewEnricher constructs an enricher from the market config. A config without
// credentials yields an enricher that always passes instructions through.
func NewEnricher(cfg *market.Config, opts ...EnricherOption) (*Enricher, error) {
	e := &Enricher{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.provider == nil && cfg.Enabled() {
		provider, err := cfg.NewProvider()
		if err != nil {
			return nil, err
		}
		e.provider = provider
	}
	return e, nil
}

// Enabled reports whether this enricher can fetch market data at all.
func (e *Enricher) Enabled() bool {
	return e != nil && e.provider != nil && e.cfg.Enabled()
}

// Enrich appends a computed market data block to baseInstructions. The ticker
// comes from the config or is extracted from the user's message. On any
// fetch or computation failure the error is logged and baseInstructions is
// returned unchanged; enrichment never fails the parent request.
func (e *Enricher) Enrich(ctx context.Context, baseInstructions, message string) string {
	if !e.Enabled() {
		return baseInstructions
	}

	ticker := e.cfg.Ticker
	if ticker == "" {
		ticker = ExtractTicker(message)
	}
	if ticker == "" {
		return baseInstructions
	}

	timeframe := market.Timeframe(e.cfg.Timeframe)
	if !timeframe.Valid() {
		timeframe = market.DefaultTimeframe
	}

	series, err := e.provider.Bars(ctx, ticker, timeframe)
	if err != nil {
		logx.WithContext(ctx).Errorf("enrich: fetch bars for %s: %v", ticker, err)
		return baseInstructions
	}

	report, err := indicators.Compute(series)
	if err != nil {
		logx.WithContext(ctx).Errorf("enrich: compute indicators for %s: %v", ticker, err)
		return baseInstructions
	}

	// A missing quote is soft: the block is rendered without bid/ask.
	quote, err := e.provider.LatestQuote(ctx, ticker)
	if err != nil {
		logx.WithContext(ctx).Infof("enrich: no quote for %s: %v", ticker, err)
		quote = nil
	}

	return baseInstructions + renderBlock(ticker, timeframe, series.Len(), report, quote)
}

func renderBlock(ticker string, timeframe market.Timeframe, points int, report *indicators.Report, quote *market.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n\n## MARKET DATA AVAILABLE:\n")
	fmt.Fprintf(&b, "Ticker: %s\n", ticker)
	fmt.Fprintf(&b, "Timeframe: %s\n", timeframe)
	fmt.Fprintf(&b, "Data Points: %d\n", points)

	fmt.Fprintf(&b, "\n### Current Market Data:\n")
	fmt.Fprintf(&b, "- Price: $%.2f\n", report.CurrentPrice)
	fmt.Fprintf(&b, "- Change: %.2f%%\n", report.PriceChangePercent)
	if quote != nil {
		fmt.Fprintf(&b, "- Bid/Ask: $%.2f/$%.2f\n", quote.Bid, quote.Ask)
	}

	fmt.Fprintf(&b, "\n### Technical Indicators (Calculated):\n")
	fmt.Fprintf(&b, "- RSI(14): %.2f\n", report.RSI14)
	if report.MACD != nil {
		fmt.Fprintf(&b, "- MACD: %.3f\n", report.MACD.Line)
	}
	if report.SMA20 != nil {
		fmt.Fprintf(&b, "- SMA(20): $%.2f\n", *report.SMA20)
	}
	if report.SMA50 != nil {
		fmt.Fprintf(&b, "- SMA(50): $%.2f\n", *report.SMA50)
	}
	if report.Bollinger != nil {
		fmt.Fprintf(&b, "- Bollinger Bands: Upper: $%.2f, Lower: $%.2f\n", report.Bollinger.Upper, report.Bollinger.Lower)
	}
	if report.ATR14 != nil {
		fmt.Fprintf(&b, "- ATR(14): %.2f\n", *report.ATR14)
	}
	if report.VolumeRatio != nil {
		fmt.Fprintf(&b, "- Volume Ratio: %.2fx average\n", *report.VolumeRatio)
	}
	if report.Stochastic != nil {
		fmt.Fprintf(&b, "- Stochastic: K: %.2f, D: %.2f\n", report.Stochastic.K, report.Stochastic.D)
	}

	fmt.Fprintf(&b, "\n### Support/Resistance:\n")
	fmt.Fprintf(&b, "- Support Levels: %s\n", formatLevels(report.SupportLevels))
	fmt.Fprintf(&b, "- Resistance Levels: %s\n", formatLevels(report.ResistanceLevels))
	if report.Pivot != nil {
		fmt.Fprintf(&b, "- Pivot Points: R1: $%.2f, S1: $%.2f\n", report.Pivot.R1, report.Pivot.S1)
	}

	b.WriteString("\nNote: This is real calculated data from the market data API, not web search results.\n")
	b.WriteString("Present this data in your response along with any additional web search findings.")

	return b.String()
}

func formatLevels(levels []float64) string {
	if len(levels) == 0 {
		return "n/a"
	}
	parts := make([]string, len(levels))
	for i, level := range levels {
		parts[i] = fmt.Sprintf("$%.2f", level)
	}
	return strings.Join(parts, ", ")
}
