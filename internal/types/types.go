// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package types

// IncomingMessage is the user turn carried by a chat request.
type IncomingMessage struct {
	MessageID string `json:"messageId,optional"`
	ChatID    string `json:"chatId,optional"`
	Content   string `json:"content,optional"`
}

// ChatRequest starts or continues a streamed conversation. History is the
// client-side transcript as [role, content] pairs, role "human" or "assistant".
// Files lists the identifiers of documents attached to the conversation.
type ChatRequest struct {
	ChatID    string          `json:"chatId,optional"`
	FocusMode string          `json:"focusMode,optional"`
	Message   IncomingMessage `json:"message,optional"`
	History   [][]string      `json:"history,optional"`
	Files     []string        `json:"files,optional"`
}

// SearchRequest is the single-shot search surface. With Stream false the
// handler collects the full answer before responding.
type SearchRequest struct {
	Query     string     `json:"query,optional"`
	FocusMode string     `json:"focusMode,optional"`
	History   [][]string `json:"history,optional"`
	Stream    bool       `json:"stream,optional"`
}

// SearchSource is one cited document in a non-streamed search response.
type SearchSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse is the non-streamed search result.
type SearchResponse struct {
	Message string         `json:"message"`
	Sources []SearchSource `json:"sources"`
}

// ErrorResponse is the JSON body of a non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
}
