package cache

import (
	"strings"
	"time"

	"finsight-api/internal/config"
)

// Namespace is the Redis key prefix for the finsight application.
const Namespace = "finsight"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 30*time.Second),
		Medium: durationOrDefault(cfg.Medium, 5*time.Minute),
		Long:   durationOrDefault(cfg.Long, time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Market Data Keys -------------------------------------------------------

// BarsKey holds a serialised bar series for one ticker and lookback window.
// Quotes are deliberately not cached: a stale bid/ask is worse than a refetch.
func BarsKey(ticker, timeframe string) string {
	return formatKey("bars", strings.ToUpper(ticker), timeframe)
}

// --- Conversation Keys ------------------------------------------------------

func ConversationKey(chatID string) string {
	return formatKey("chat", chatID)
}

// MessagesKey caches the ordered message list of a conversation.
func MessagesKey(chatID string) string {
	return formatKey("chat", chatID, "messages")
}

// --- TTL Helpers ------------------------------------------------------------

// BarsTTL returns the TTL for cached bar series. Intraday windows refresh
// faster than daily ones.
func BarsTTL(ttl TTLSet, intraday bool) time.Duration {
	if intraday {
		return ttl.Duration(TTLShort)
	}
	return ttl.Duration(TTLMedium)
}

// ConversationTTL returns the TTL for conversation metadata.
func ConversationTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// MessagesTTL returns the TTL for cached message lists.
func MessagesTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}
