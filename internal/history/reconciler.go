package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/repo"
	"finsight-api/pkg/answer"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxTitleLen = 100
)

// Reconciler keeps the stored conversation history consistent with the turns
// the client actually sent. Persistence runs alongside answer generation and
// never blocks it: reconciliation errors are logged, not surfaced.
type Reconciler struct {
	chats repo.ChatRepo
}

// NewReconciler builds a reconciler over the chat repository.
func NewReconciler(chats repo.ChatRepo) *Reconciler {
	return &Reconciler{chats: chats}
}

// UserTurn describes the incoming user message of one request. Files carries
// the identifiers of documents attached to the conversation; they are
// recorded when the conversation is first created.
type UserTurn struct {
	ChatID    string
	MessageID string
	Content   string
	FocusMode string
	Files     []string
}

// RecordUserTurn reconciles the conversation with an incoming user message.
//
// A conversation is created lazily on first contact, titled from the message.
// An unseen messageId is appended. A known messageId means the client edited
// and resent an earlier turn: the stored content is refreshed and every
// message that came after it is discarded, so regeneration starts from a
// clean suffix.
func (r *Reconciler) RecordUserTurn(ctx context.Context, turn UserTurn) error {
	if err := r.ensureConversation(ctx, turn); err != nil {
		return err
	}

	existing, err := r.chats.FindMessage(ctx, turn.MessageID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		msg := &repo.ChatMessage{
			MessageID: turn.MessageID,
			ChatID:    turn.ChatID,
			Role:      RoleUser,
			Content:   turn.Content,
		}
		if err := r.chats.InsertMessage(ctx, msg); err != nil {
			return fmt.Errorf("history: insert user message: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("history: lookup message %s: %w", turn.MessageID, err)
	}

	if existing.Content != turn.Content {
		if err := r.chats.UpdateMessageContent(ctx, turn.ChatID, turn.MessageID, turn.Content, nil); err != nil {
			return fmt.Errorf("history: update edited message: %w", err)
		}
	}
	removed, err := r.chats.DeleteMessagesAfter(ctx, turn.ChatID, existing.Seq)
	if err != nil {
		return fmt.Errorf("history: truncate after resend: %w", err)
	}
	if removed > 0 {
		logx.WithContext(ctx).Infof("history: chat %s resent message %s, dropped %d later messages",
			turn.ChatID, turn.MessageID, removed)
	}
	return nil
}

// RecordAssistantTurn persists a completed assistant answer with its source
// documents. Partial answers are never recorded: the caller invokes this only
// after the stream ended cleanly.
func (r *Reconciler) RecordAssistantTurn(ctx context.Context, chatID, messageID, content string, sources []answer.SourceDoc) error {
	metadata, err := encodeSources(sources)
	if err != nil {
		return fmt.Errorf("history: encode sources: %w", err)
	}
	msg := &repo.ChatMessage{
		MessageID: messageID,
		ChatID:    chatID,
		Role:      RoleAssistant,
		Content:   content,
		Metadata:  metadata,
	}
	if err := r.chats.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("history: insert assistant message: %w", err)
	}
	return nil
}

// Load returns the stored turns of a conversation, oldest first.
func (r *Reconciler) Load(ctx context.Context, chatID string) ([]repo.ChatMessage, error) {
	msgs, err := r.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("history: list messages: %w", err)
	}
	return msgs, nil
}

func (r *Reconciler) ensureConversation(ctx context.Context, turn UserTurn) error {
	_, err := r.chats.FindConversation(ctx, turn.ChatID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("history: lookup conversation %s: %w", turn.ChatID, err)
	}
	conv := &repo.Conversation{
		ID:        turn.ChatID,
		Title:     titleFrom(turn.Content),
		FocusMode: turn.FocusMode,
		Files:     turn.Files,
	}
	if err := r.chats.InsertConversation(ctx, conv); err != nil {
		return fmt.Errorf("history: create conversation %s: %w", turn.ChatID, err)
	}
	return nil
}

// titleFrom derives the conversation title from the first message, truncated
// on a rune boundary.
func titleFrom(content string) string {
	if utf8.RuneCountInString(content) <= maxTitleLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxTitleLen])
}

type sourcesMetadata struct {
	Sources []answer.SourceDoc `json:"sources,omitempty"`
}

func encodeSources(sources []answer.SourceDoc) ([]byte, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	return json.Marshal(sourcesMetadata{Sources: sources})
}

// DecodeSources extracts source documents from stored message metadata.
func DecodeSources(metadata []byte) []answer.SourceDoc {
	if len(metadata) == 0 {
		return nil
	}
	var decoded sourcesMetadata
	if err := json.Unmarshal(metadata, &decoded); err != nil {
		return nil
	}
	return decoded.Sources
}
