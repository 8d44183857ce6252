// Command analyze fetches a bar series for one ticker and prints the derived
// indicator report as JSON. It exercises the same market pipeline the API
// uses for prompt enrichment, which makes it handy for eyeballing what the
// model will be shown for a given ticker.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/pkg/confkit"
	marketpkg "finsight-api/pkg/market"
	"finsight-api/pkg/market/indicators"
)

type output struct {
	Ticker    string             `json:"ticker"`
	Timeframe string             `json:"timeframe"`
	Bars      int                `json:"bars"`
	Report    *indicators.Report `json:"report"`
	Quote     *marketpkg.Quote   `json:"quote,omitempty"`
}

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	var (
		marketPath = flag.String("market-config", "etc/market.yaml", "path to market provider configuration")
		ticker     = flag.String("ticker", "", "ticker to analyze (defaults to the configured one)")
		timeframe  = flag.String("timeframe", "", "lookback window: 1D 1W 1M 3M 6M 1Y (defaults to the configured one)")
		withQuote  = flag.Bool("quote", false, "include the latest bid/ask snapshot")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	confkit.LoadDotenvOnce()

	cfg, err := marketpkg.LoadConfig(*marketPath)
	if err != nil {
		fatalf("load market config: %v", err)
	}

	sym := strings.ToUpper(strings.TrimSpace(*ticker))
	if sym == "" {
		sym = strings.ToUpper(strings.TrimSpace(cfg.Ticker))
	}
	if sym == "" {
		fatalf("no ticker provided; use --ticker or set one in %s", *marketPath)
	}

	tf := marketpkg.Timeframe(strings.TrimSpace(*timeframe))
	if tf == "" {
		tf = marketpkg.Timeframe(cfg.Timeframe)
	}
	if !tf.Valid() {
		tf = marketpkg.DefaultTimeframe
	}

	provider, err := cfg.NewProvider()
	if err != nil {
		fatalf("initialise market provider: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	series, err := provider.Bars(ctx, sym, tf)
	if err != nil {
		fatalf("fetch bars for %s: %v", sym, err)
	}

	report, err := indicators.Compute(series)
	if err != nil {
		fatalf("compute indicators for %s: %v", sym, err)
	}

	out := output{
		Ticker:    sym,
		Timeframe: string(tf),
		Bars:      series.Len(),
		Report:    report,
	}
	if *withQuote {
		quote, err := provider.LatestQuote(ctx, sym)
		if err != nil {
			logx.Errorf("fetch quote for %s: %v", sym, err)
		} else {
			out.Quote = quote
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fatalf("encode report: %v", err)
	}
}
