package answer

import (
	"context"
	"fmt"
	"strings"

	"finsight-api/pkg/llm"
)

// ChatStreamer is the LLM capability the generator needs.
type ChatStreamer interface {
	ChatStream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error)
}

// Searcher retrieves source documents for a query. Implementations are
// external collaborators (a SearXNG instance in the default deployment).
type Searcher interface {
	Search(ctx context.Context, query string) ([]SourceDoc, error)
}

// Request describes one answer generation run.
type Request struct {
	Query        string
	History      []llm.Message
	Instructions string
	Model        string
}

// Generator produces an answer event stream by searching for sources and
// streaming an LLM completion grounded on them.
type Generator struct {
	llm      ChatStreamer
	searcher Searcher
}

// GeneratorOption customises the generator.
type GeneratorOption func(*Generator)

// WithSearcher attaches a source document searcher. Without one the
// generator answers from the model alone and emits no sources event.
func WithSearcher(s Searcher) GeneratorOption {
	return func(g *Generator) {
		if s != nil {
			g.searcher = s
		}
	}
}

// NewGenerator constructs a generator over the given LLM streamer.
func NewGenerator(streamer ChatStreamer, opts ...GeneratorOption) (*Generator, error) {
	if streamer == nil {
		return nil, fmt.Errorf("answer: llm streamer is required")
	}
	g := &Generator{llm: streamer}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate starts answer generation and returns its event source. The
// returned source emits sources (when a searcher is configured), then
// response chunks, then a terminal end or error event, and closes.
func (g *Generator) Generate(ctx context.Context, req *Request) Source {
	src := NewChanSource(16)
	go g.run(ctx, req, src.C)
	return src
}

func (g *Generator) run(ctx context.Context, req *Request, out chan<- Event) {
	defer close(out)

	var sources []SourceDoc
	if g.searcher != nil {
		found, err := g.searcher.Search(ctx, req.Query)
		if err != nil {
			g.emit(ctx, out, Event{Type: EventError, Err: fmt.Errorf("answer: search failed: %w", err)})
			return
		}
		sources = found
		g.emit(ctx, out, Event{Type: EventSources, Sources: sources})
	}

	messages := g.buildMessages(req, sources)
	chunks, err := g.llm.ChatStream(ctx, &llm.ChatRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		g.emit(ctx, out, Event{Type: EventError, Err: fmt.Errorf("answer: start stream: %w", err)})
		return
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			g.emit(ctx, out, Event{Type: EventError, Err: chunk.Err})
			return
		}
		if chunk.Content == "" {
			continue
		}
		if !g.emit(ctx, out, Event{Type: EventResponse, Text: chunk.Content}) {
			return
		}
	}

	g.emit(ctx, out, Event{Type: EventEnd})
}

// emit delivers an event unless the context is cancelled. Returns false when
// delivery was abandoned.
func (g *Generator) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (g *Generator) buildMessages(req *Request, sources []SourceDoc) []llm.Message {
	messages := make([]llm.Message, 0, len(req.History)+2)

	instructions := req.Instructions
	if len(sources) > 0 {
		var b strings.Builder
		b.WriteString(instructions)
		b.WriteString("\n\n## Sources:\n")
		for i, doc := range sources {
			fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, doc.Title, doc.URL)
			if doc.Snippet != "" {
				fmt.Fprintf(&b, "    %s\n", doc.Snippet)
			}
		}
		instructions = b.String()
	}
	if instructions != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: instructions})
	}
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Query})
	return messages
}
