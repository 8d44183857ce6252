package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cacheutil "finsight-api/internal/cache"
)

// Conversation is one chat thread. The title is seeded from the first user
// message and never rewritten afterwards. Files lists the identifiers of
// documents attached when the conversation was created.
type Conversation struct {
	ID        string
	Title     string
	FocusMode string
	Files     []string
	CreatedAt time.Time
}

// ChatMessage is a persisted turn within a conversation. Seq is the
// monotonically increasing storage id used to order turns and to truncate
// history on edit-and-resend.
type ChatMessage struct {
	Seq       int64
	MessageID string
	ChatID    string
	Role      string
	Content   string
	Metadata  []byte
	CreatedAt time.Time
}

// ChatRepo persists conversations and their messages.
type ChatRepo interface {
	FindConversation(ctx context.Context, chatID string) (*Conversation, error)
	InsertConversation(ctx context.Context, conv *Conversation) error
	ListMessages(ctx context.Context, chatID string) ([]ChatMessage, error)
	FindMessage(ctx context.Context, messageID string) (*ChatMessage, error)
	// InsertMessage stores the message and fills in its Seq.
	InsertMessage(ctx context.Context, msg *ChatMessage) error
	UpdateMessageContent(ctx context.Context, chatID, messageID, content string, metadata []byte) error
	// DeleteMessagesAfter removes every message of the conversation with a
	// storage id strictly greater than seq. Returns the number removed.
	DeleteMessagesAfter(ctx context.Context, chatID string, seq int64) (int64, error)
}

type chatRepo struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	ttl   cacheutil.TTLSet
}

func newChatRepo(deps Dependencies) ChatRepo {
	return &chatRepo{
		conn:  deps.DBConn,
		cache: deps.Cache,
		ttl:   deps.TTL,
	}
}

type conversationRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	FocusMode string         `db:"focus_mode"`
	Files     sql.NullString `db:"files"`
	CreatedAt time.Time      `db:"created_at"`
}

type messageRow struct {
	Seq       int64          `db:"id"`
	MessageID string         `db:"message_id"`
	ChatID    string         `db:"chat_id"`
	Role      string         `db:"role"`
	Content   string         `db:"content"`
	Metadata  sql.NullString `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

func (row messageRow) toMessage() ChatMessage {
	msg := ChatMessage{
		Seq:       row.Seq,
		MessageID: row.MessageID,
		ChatID:    row.ChatID,
		Role:      row.Role,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}
	if row.Metadata.Valid {
		msg.Metadata = []byte(row.Metadata.String)
	}
	return msg
}

func (r *chatRepo) FindConversation(ctx context.Context, chatID string) (*Conversation, error) {
	key := cacheutil.ConversationKey(chatID)
	var cached Conversation
	if ok := r.getCache(ctx, key, &cached); ok {
		return &cached, nil
	}

	const q = `SELECT id, title, focus_mode, files, created_at FROM conversations WHERE id = $1 LIMIT 1`
	var row conversationRow
	if err := r.conn.QueryRowCtx(ctx, &row, q, chatID); err != nil {
		if err == sqlx.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("chatRepo.FindConversation query: %w", err)
	}

	conv := &Conversation{
		ID:        row.ID,
		Title:     row.Title,
		FocusMode: row.FocusMode,
		Files:     decodeFiles(row.Files),
		CreatedAt: row.CreatedAt,
	}
	r.setCache(ctx, key, cacheutil.ConversationTTL(r.ttl), conv)
	return conv, nil
}

func (r *chatRepo) InsertConversation(ctx context.Context, conv *Conversation) error {
	const q = `
INSERT INTO conversations (id, title, focus_mode, files, created_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (id) DO NOTHING`
	files, err := encodeFiles(conv.Files)
	if err != nil {
		return fmt.Errorf("chatRepo.InsertConversation encode files: %w", err)
	}
	if _, err := r.conn.ExecCtx(ctx, q, conv.ID, conv.Title, conv.FocusMode, files); err != nil {
		return fmt.Errorf("chatRepo.InsertConversation exec: %w", err)
	}
	r.delCache(ctx, cacheutil.ConversationKey(conv.ID))
	return nil
}

func (r *chatRepo) ListMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	key := cacheutil.MessagesKey(chatID)
	var cached []ChatMessage
	if ok := r.getCache(ctx, key, &cached); ok {
		return cached, nil
	}

	const q = `
SELECT id, message_id, chat_id, role, content, metadata, created_at
FROM messages
WHERE chat_id = $1
ORDER BY id ASC`

	var rows []messageRow
	if err := r.conn.QueryRowsCtx(ctx, &rows, q, chatID); err != nil {
		return nil, fmt.Errorf("chatRepo.ListMessages query: %w", err)
	}

	result := make([]ChatMessage, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toMessage())
	}
	r.setCache(ctx, key, cacheutil.MessagesTTL(r.ttl), result)
	return result, nil
}

func (r *chatRepo) FindMessage(ctx context.Context, messageID string) (*ChatMessage, error) {
	const q = `
SELECT id, message_id, chat_id, role, content, metadata, created_at
FROM messages
WHERE message_id = $1
LIMIT 1`

	var row messageRow
	if err := r.conn.QueryRowCtx(ctx, &row, q, messageID); err != nil {
		if err == sqlx.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("chatRepo.FindMessage query: %w", err)
	}
	msg := row.toMessage()
	return &msg, nil
}

func (r *chatRepo) InsertMessage(ctx context.Context, msg *ChatMessage) error {
	const q = `
INSERT INTO messages (message_id, chat_id, role, content, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id`

	metadata := sql.NullString{}
	if len(msg.Metadata) > 0 {
		metadata = sql.NullString{String: string(msg.Metadata), Valid: true}
	}
	if err := r.conn.QueryRowCtx(ctx, &msg.Seq, q,
		msg.MessageID, msg.ChatID, msg.Role, msg.Content, metadata); err != nil {
		return fmt.Errorf("chatRepo.InsertMessage exec: %w", err)
	}
	r.delCache(ctx, cacheutil.MessagesKey(msg.ChatID))
	return nil
}

func (r *chatRepo) UpdateMessageContent(ctx context.Context, chatID, messageID, content string, metadata []byte) error {
	const q = `UPDATE messages SET metadata = $1, content = $2 WHERE message_id = $3`
	meta := sql.NullString{}
	if len(metadata) > 0 {
		meta = sql.NullString{String: string(metadata), Valid: true}
	}
	if _, err := r.conn.ExecCtx(ctx, q, meta, content, messageID); err != nil {
		return fmt.Errorf("chatRepo.UpdateMessageContent exec: %w", err)
	}
	r.delCache(ctx, cacheutil.MessagesKey(chatID))
	return nil
}

func (r *chatRepo) DeleteMessagesAfter(ctx context.Context, chatID string, seq int64) (int64, error) {
	const q = `DELETE FROM messages WHERE chat_id = $1 AND id > $2`
	res, err := r.conn.ExecCtx(ctx, q, chatID, seq)
	if err != nil {
		return 0, fmt.Errorf("chatRepo.DeleteMessagesAfter exec: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("chatRepo.DeleteMessagesAfter rows affected: %w", err)
	}
	r.delCache(ctx, cacheutil.MessagesKey(chatID))
	return removed, nil
}

func encodeFiles(files []string) (sql.NullString, error) {
	if len(files) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(files)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeFiles(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var files []string
	if err := json.Unmarshal([]byte(raw.String), &files); err != nil {
		return nil
	}
	return files
}

// helper: get from redis into v
func (r *chatRepo) getCache(ctx context.Context, key string, v interface{}) bool {
	if r.cache == nil {
		return false
	}
	if err := r.cache.GetCtx(ctx, key, v); err != nil {
		if !r.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

// helper: set redis from v
func (r *chatRepo) setCache(ctx context.Context, key string, ttl time.Duration, v interface{}) {
	if r.cache == nil || ttl <= 0 {
		return
	}
	if err := r.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}

func (r *chatRepo) delCache(ctx context.Context, key string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DelCtx(ctx, key); err != nil {
		logx.WithContext(ctx).Errorf("del cache %s: %v", key, err)
	}
}
