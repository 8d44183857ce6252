package logic

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/svc"
)

// Focus modes accepted on the chat and search surfaces.
const (
	FocusWebSearch        = "webSearch"
	FocusMarketData       = "marketData"
	FocusFinanceNews      = "financeNews"
	FocusFundamentals     = "financeFundamentals"
	FocusFinanceSocial    = "financeSocial"
	FocusWritingAssistant = "writingAssistant"
)

var validFocusModes = map[string]bool{
	FocusWebSearch:        true,
	FocusMarketData:       true,
	FocusFinanceNews:      true,
	FocusFundamentals:     true,
	FocusFinanceSocial:    true,
	FocusWritingAssistant: true,
}

const webSearchInstructions = `You are a financial research assistant that answers questions using the provided web sources.

Guidelines:
- Ground every factual claim in the sources; cite them by title when relevant.
- Include ticker symbols when discussing companies.
- Say plainly when the sources do not cover the question. Never invent figures.
- Be informative, neutral and well structured. You report data, you do not give investment advice.`

const marketDataInstructions = `You are a financial research assistant focused on market data and technical analysis.

Guidelines:
- Lead with current price, change and percent change, then the technical picture: RSI, MACD, moving averages, Bollinger bands, support and resistance.
- Interpret indicator values (overbought/oversold, trend direction, volatility regime) without predicting future prices.
- Include the timeframe the data covers and ticker symbols for every instrument.
- If a MARKET DATA block is present below, treat it as the authoritative snapshot and prefer it over source text.
- You describe what the data shows. You do not give buy or sell recommendations.`

const financeNewsInstructions = `You are a financial research assistant focused on market news and sentiment.

Guidelines:
- Prioritise recent, market-moving developments and label when each item happened.
- Report sentiment and analyst reaction as claims of the cited sources, not your own view.
- Include ticker symbols and explain the market impact of each development.
- Organise by importance: breaking news, recent developments, sentiment, outlook.`

const fundamentalsInstructions = `You are a financial research assistant focused on company fundamentals.

Guidelines:
- Cover valuation (P/E, market cap), profitability (margins, EPS), growth and balance-sheet health as the sources report them.
- Anchor every figure to its reporting period and source.
- Compare against sector peers when the sources allow it.
- You present fundamentals; you do not rate the stock.`

const financeSocialInstructions = `You are a financial research assistant focused on retail and social-media sentiment.

Guidelines:
- Summarise what retail investors are discussing and how sentiment leans, always attributed to the cited sources.
- Distinguish sentiment from fact; flag rumours as rumours.
- Include ticker symbols and note when discussion volume itself is the story.`

const writingAssistantInstructions = `You are a writing assistant for finance-related text. Help the user draft, rewrite or polish their text. Do not perform web research; work only from the conversation.`

var defaultInstructions = map[string]string{
	FocusWebSearch:        webSearchInstructions,
	FocusMarketData:       marketDataInstructions,
	FocusFinanceNews:      financeNewsInstructions,
	FocusFundamentals:     fundamentalsInstructions,
	FocusFinanceSocial:    financeSocialInstructions,
	FocusWritingAssistant: writingAssistantInstructions,
}

// instructionsFor resolves the system instructions for a focus mode. A
// template from PromptDir wins over the built-in text; both fall back to the
// web search instructions for unknown modes.
func instructionsFor(svcCtx *svc.ServiceContext, focusMode string) string {
	if tmpl, ok := svcCtx.Prompts[focusMode]; ok {
		rendered, err := tmpl.Render(map[string]any{
			"Date": time.Now().UTC().Format("2006-01-02"),
		})
		if err == nil {
			return rendered
		}
		logx.Errorf("render prompt template %s: %v", focusMode, err)
	}
	if text, ok := defaultInstructions[focusMode]; ok {
		return text
	}
	return webSearchInstructions
}
