// Package answer defines the typed event stream produced while generating an
// assistant reply. Producers write tagged events to a channel; consumers read
// them in emission order. The tagged union replaces ad-hoc event-name
// dispatch: a consumer switches on Event.Type and nothing else.
package answer

// EventType tags answer stream events.
type EventType string

const (
	// EventResponse carries one incremental answer text chunk.
	EventResponse EventType = "response"
	// EventSources carries the citation list for the answer.
	EventSources EventType = "sources"
	// EventEnd signals successful completion. Terminal.
	EventEnd EventType = "end"
	// EventError signals a failed generation. Terminal.
	EventError EventType = "error"
)

// SourceDoc is one citation document attached to an answer.
type SourceDoc struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Event is the tagged union emitted by an answer source. Exactly one payload
// field is meaningful for a given Type.
type Event struct {
	Type    EventType
	Text    string
	Sources []SourceDoc
	Err     error
}

// Source emits answer events in real time. The channel closes after a
// terminal end or error event; consumers must not assume anything arrives
// after that.
type Source interface {
	Events() <-chan Event
}

// ChanSource adapts a plain event channel to a Source. Useful for tests and
// for adapters that produce events elsewhere.
type ChanSource struct {
	C chan Event
}

// NewChanSource allocates a buffered channel source.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{C: make(chan Event, buffer)}
}

// Events returns the underlying channel.
func (s *ChanSource) Events() <-chan Event {
	return s.C
}
