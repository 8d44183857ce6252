package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"finsight-api/pkg/llm"
)

type fakeStreamer struct {
	chunks   []llm.StreamChunk
	startErr error
	lastReq  *llm.ChatRequest
}

func (f *fakeStreamer) ChatStream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	f.lastReq = req
	if f.startErr != nil {
		return nil, f.startErr
	}
	out := make(chan llm.StreamChunk, len(f.chunks))
	for _, chunk := range f.chunks {
		out <- chunk
	}
	close(out)
	return out, nil
}

type fakeSearcher struct {
	docs []SourceDoc
	err  error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]SourceDoc, error) {
	return f.docs, f.err
}

func drain(t *testing.T, src Source) []Event {
	t.Helper()
	var events []Event
	for ev := range src.Events() {
		events = append(events, ev)
	}
	return events
}

func TestGenerateEmitsSourcesThenChunksThenEnd(t *testing.T) {
	streamer := &fakeStreamer{chunks: []llm.StreamChunk{
		{Content: "Hello"},
		{Content: " world"},
	}}
	searcher := &fakeSearcher{docs: []SourceDoc{{Title: "doc", URL: "https://example.com"}}}

	gen, err := NewGenerator(streamer, WithSearcher(searcher))
	require.NoError(t, err)

	events := drain(t, gen.Generate(context.Background(), &Request{Query: "what is up"}))
	require.Len(t, events, 4)
	require.Equal(t, EventSources, events[0].Type)
	require.Equal(t, EventResponse, events[1].Type)
	require.Equal(t, "Hello", events[1].Text)
	require.Equal(t, " world", events[2].Text)
	require.Equal(t, EventEnd, events[3].Type)
}

func TestGenerateWithoutSearcher(t *testing.T) {
	streamer := &fakeStreamer{chunks: []llm.StreamChunk{{Content: "answer"}}}
	gen, err := NewGenerator(streamer)
	require.NoError(t, err)

	events := drain(t, gen.Generate(context.Background(), &Request{Query: "q"}))
	require.Len(t, events, 2)
	require.Equal(t, EventResponse, events[0].Type)
	require.Equal(t, EventEnd, events[1].Type)
}

func TestGenerateSearchFailureIsTerminal(t *testing.T) {
	streamer := &fakeStreamer{}
	gen, err := NewGenerator(streamer, WithSearcher(&fakeSearcher{err: errors.New("searx down")}))
	require.NoError(t, err)

	events := drain(t, gen.Generate(context.Background(), &Request{Query: "q"}))
	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
	require.ErrorContains(t, events[0].Err, "searx down")
	require.Nil(t, streamer.lastReq, "llm must not be called after a search failure")
}

func TestGenerateStreamSetupFailure(t *testing.T) {
	streamer := &fakeStreamer{startErr: errors.New("no connection")}
	gen, err := NewGenerator(streamer)
	require.NoError(t, err)

	events := drain(t, gen.Generate(context.Background(), &Request{Query: "q"}))
	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
}

func TestGenerateMidStreamFailure(t *testing.T) {
	streamer := &fakeStreamer{chunks: []llm.StreamChunk{
		{Content: "partial"},
		{Err: errors.New("stream reset")},
	}}
	gen, err := NewGenerator(streamer)
	require.NoError(t, err)

	events := drain(t, gen.Generate(context.Background(), &Request{Query: "q"}))
	require.Len(t, events, 2)
	require.Equal(t, EventResponse, events[0].Type)
	require.Equal(t, EventError, events[1].Type)
}

func TestGenerateBuildsGroundedMessages(t *testing.T) {
	streamer := &fakeStreamer{chunks: []llm.StreamChunk{{Content: "x"}}}
	searcher := &fakeSearcher{docs: []SourceDoc{{Title: "Apple earnings", URL: "https://example.com/a"}}}
	gen, err := NewGenerator(streamer, WithSearcher(searcher))
	require.NoError(t, err)

	req := &Request{
		Query:        "how did AAPL do",
		Instructions: "You are a finance assistant.",
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "hi"},
			{Role: llm.RoleAssistant, Content: "hello"},
		},
	}
	drain(t, gen.Generate(context.Background(), req))

	require.NotNil(t, streamer.lastReq)
	msgs := streamer.lastReq.Messages
	require.Len(t, msgs, 4)
	require.Equal(t, llm.RoleSystem, msgs[0].Role)
	require.Contains(t, msgs[0].Content, "You are a finance assistant.")
	require.Contains(t, msgs[0].Content, "Apple earnings")
	require.Equal(t, "hi", msgs[1].Content)
	require.Equal(t, "hello", msgs[2].Content)
	require.Equal(t, "how did AAPL do", msgs[3].Content)
}
