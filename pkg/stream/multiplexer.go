// Package stream re-serializes answer events into an ordered NDJSON output
// stream. One multiplexer serves one request: it forwards events in exactly
// the order the source emitted them, accumulates the full answer, and hands
// the finished transcript to a completion callback.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"finsight-api/pkg/answer"
)

// State describes where a multiplexer is in its lifecycle.
type State string

const (
	StateOpen      State = "open"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
	StateCancelled State = "cancelled"
)

// Wire event types emitted downstream.
const (
	wireMessage    = "message"
	wireSources    = "sources"
	wireMessageEnd = "messageEnd"
	wireError      = "error"
	wireInit       = "init"
)

// OutputEvent is one NDJSON line on the downstream transport.
type OutputEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
}

// CompleteFunc receives the accumulated answer text and the final source
// list once the source ends normally. It is never invoked after an error or
// cancellation: a partial answer is discarded, not persisted.
type CompleteFunc func(content string, sources []answer.SourceDoc)

// Multiplexer drains one answer source into one output writer.
type Multiplexer struct {
	messageID string

	mu      sync.Mutex
	state   State
	content string
	sources []answer.SourceDoc
}

// New constructs a multiplexer tagging forwarded events with messageID.
func New(messageID string) *Multiplexer {
	return &Multiplexer{messageID: messageID, state: StateOpen}
}

// State reports the current lifecycle state.
func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Content returns the answer text accumulated so far.
func (m *Multiplexer) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// WriteInit emits the stream-connected marker. Used by the search surface
// before forwarding begins.
func (m *Multiplexer) WriteInit(w io.Writer) error {
	return writeEvent(w, OutputEvent{Type: wireInit, Data: "Stream connected"})
}

// Run drains src until a terminal event or cancellation, writing one NDJSON
// line per event to w in the exact order received. On a normal end it writes
// the messageEnd marker and invokes onComplete once with the accumulated
// answer and final sources. On a source error it forwards an error event and
// discards the partial answer. On cancellation it stops forwarding and
// detaches; the upstream source is not cancelled from here.
func (m *Multiplexer) Run(ctx context.Context, src answer.Source, w io.Writer, onComplete CompleteFunc) error {
	m.setState(StateStreaming)

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			m.setState(StateCancelled)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// Source closed without a terminal event: treat as end so a
				// well-behaved client still sees the stream finish.
				return m.finish(w, onComplete)
			}
			done, err := m.handle(ctx, ev, w, onComplete)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

func (m *Multiplexer) handle(ctx context.Context, ev answer.Event, w io.Writer, onComplete CompleteFunc) (bool, error) {
	switch ev.Type {
	case answer.EventResponse:
		m.mu.Lock()
		m.content += ev.Text
		m.mu.Unlock()
		if err := writeEvent(w, OutputEvent{Type: wireMessage, Data: ev.Text, MessageID: m.messageID}); err != nil {
			m.setState(StateCancelled)
			return true, err
		}
	case answer.EventSources:
		// Last write wins if the source re-emits its list.
		m.mu.Lock()
		m.sources = ev.Sources
		m.mu.Unlock()
		if err := writeEvent(w, OutputEvent{Type: wireSources, Data: ev.Sources, MessageID: m.messageID}); err != nil {
			m.setState(StateCancelled)
			return true, err
		}
	case answer.EventEnd:
		return true, m.finish(w, onComplete)
	case answer.EventError:
		m.setState(StateErrored)
		detail := "generation failed"
		if ev.Err != nil {
			detail = ev.Err.Error()
		}
		// Forward the failure downstream; the partial answer is dropped.
		if err := writeEvent(w, OutputEvent{Type: wireError, Data: detail}); err != nil {
			return true, err
		}
		return true, nil
	default:
		return true, fmt.Errorf("stream: unknown event type %q", ev.Type)
	}
	return false, nil
}

func (m *Multiplexer) finish(w io.Writer, onComplete CompleteFunc) error {
	if err := writeEvent(w, OutputEvent{Type: wireMessageEnd, MessageID: m.messageID}); err != nil {
		m.setState(StateCancelled)
		return err
	}
	m.mu.Lock()
	content := m.content
	sources := m.sources
	m.state = StateCompleted
	m.mu.Unlock()

	if onComplete != nil {
		onComplete(content, sources)
	}
	return nil
}

func (m *Multiplexer) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func writeEvent(w io.Writer, ev OutputEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: encode event: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("stream: write event: %w", err)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// Collect drains src without a transport, returning the full answer text and
// final sources. Used by the non-streaming search surface.
func Collect(ctx context.Context, src answer.Source) (string, []answer.SourceDoc, error) {
	var content string
	var sources []answer.SourceDoc

	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return content, sources, nil
			}
			switch ev.Type {
			case answer.EventResponse:
				content += ev.Text
			case answer.EventSources:
				sources = ev.Sources
			case answer.EventEnd:
				return content, sources, nil
			case answer.EventError:
				if ev.Err != nil {
					return "", nil, ev.Err
				}
				return "", nil, fmt.Errorf("stream: generation failed")
			}
		}
	}
}
