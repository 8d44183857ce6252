package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RequestRecord captures one end-to-end answer cycle for audit and analysis.
type RequestRecord struct {
	Timestamp    time.Time              `json:"timestamp"`
	ChatID       string                 `json:"chat_id"`
	MessageID    string                 `json:"message_id,omitempty"`
	FocusMode    string                 `json:"focus_mode,omitempty"`
	Query        string                 `json:"query"`
	PromptDigest string                 `json:"prompt_digest,omitempty"`
	Ticker       string                 `json:"ticker,omitempty"`
	SourceCount  int                    `json:"source_count"`
	AnswerChars  int                    `json:"answer_chars"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty"`
}

// Writer persists request records to a directory as JSON files (journal style).
// Safe for concurrent use.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteRequest writes a request record to a timestamped JSON file.
func (w *Writer) WriteRequest(rec *RequestRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	name := fmt.Sprintf("chat_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
