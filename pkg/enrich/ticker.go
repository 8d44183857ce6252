package enrich

import (
	"regexp"
	"strings"
)

// Ticker extraction patterns, tried in order: a $-prefixed symbol, an
// explicit "ticker:" label, then any leading 1-5 letter word. The bare-word
// fallback is deliberately loose to match how users lead questions with a
// symbol, so it runs last.
var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([A-Z]{1,5})\b`),
	regexp.MustCompile(`(?i)ticker[:\s]+([A-Za-z]{1,5})\b`),
	regexp.MustCompile(`(?i)\b([A-Za-z]{1,5})\b(?:\s+(?:stock|ticker|price|technical|analysis|indicators?))?`),
}

var tickerShape = regexp.MustCompile(`^[A-Z]{1,5}$`)

// ExtractTicker pulls a candidate ticker symbol out of a chat message.
// Returns the empty string when no candidate is found.
func ExtractTicker(message string) string {
	for _, pattern := range tickerPatterns {
		match := pattern.FindStringSubmatch(message)
		if len(match) < 2 || match[1] == "" {
			continue
		}
		ticker := strings.ToUpper(match[1])
		if tickerShape.MatchString(ticker) {
			return ticker
		}
	}
	return ""
}
