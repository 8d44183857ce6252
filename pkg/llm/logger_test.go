package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, uint32(logx.DebugLevel), parseLevel("debug"))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel(" INFO "))
	require.Equal(t, uint32(logx.ErrorLevel), parseLevel("error"))
	require.Equal(t, uint32(logx.SevereLevel), parseLevel("fatal"))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel(""))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel("verbose"))
}

func TestToLogFieldsSorted(t *testing.T) {
	require.Nil(t, toLogFields(nil))

	fields := toLogFields(Fields{"model": "gpt-4o-mini", "attempt": 2, "chat_id": "c1"})
	require.Len(t, fields, 3)
	require.Equal(t, "attempt", fields[0].Key)
	require.Equal(t, "chat_id", fields[1].Key)
	require.Equal(t, "model", fields[2].Key)
}
