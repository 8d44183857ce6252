package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"finsight-api/internal/repo"
	"finsight-api/pkg/answer"
)

// fakeChats is an in-memory ChatRepo. Seq assignment mirrors a serial column.
type fakeChats struct {
	conversations map[string]*repo.Conversation
	messages      []repo.ChatMessage
	nextSeq       int64
}

func newFakeChats() *fakeChats {
	return &fakeChats{conversations: map[string]*repo.Conversation{}, nextSeq: 1}
}

func (f *fakeChats) FindConversation(ctx context.Context, chatID string) (*repo.Conversation, error) {
	conv, ok := f.conversations[chatID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return conv, nil
}

func (f *fakeChats) InsertConversation(ctx context.Context, conv *repo.Conversation) error {
	if _, ok := f.conversations[conv.ID]; !ok {
		f.conversations[conv.ID] = conv
	}
	return nil
}

func (f *fakeChats) ListMessages(ctx context.Context, chatID string) ([]repo.ChatMessage, error) {
	var out []repo.ChatMessage
	for _, msg := range f.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeChats) FindMessage(ctx context.Context, messageID string) (*repo.ChatMessage, error) {
	for i := range f.messages {
		if f.messages[i].MessageID == messageID {
			msg := f.messages[i]
			return &msg, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeChats) InsertMessage(ctx context.Context, msg *repo.ChatMessage) error {
	msg.Seq = f.nextSeq
	f.nextSeq++
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChats) UpdateMessageContent(ctx context.Context, chatID, messageID, content string, metadata []byte) error {
	for i := range f.messages {
		if f.messages[i].MessageID == messageID {
			f.messages[i].Content = content
			f.messages[i].Metadata = metadata
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeChats) DeleteMessagesAfter(ctx context.Context, chatID string, seq int64) (int64, error) {
	var kept []repo.ChatMessage
	var removed int64
	for _, msg := range f.messages {
		if msg.ChatID == chatID && msg.Seq > seq {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	f.messages = kept
	return removed, nil
}

func TestRecordUserTurnCreatesConversationLazily(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)

	err := rec.RecordUserTurn(context.Background(), UserTurn{
		ChatID:    "chat-1",
		MessageID: "msg-1",
		Content:   "what is AAPL doing",
		FocusMode: "marketData",
	})
	require.NoError(t, err)

	conv := chats.conversations["chat-1"]
	require.NotNil(t, conv)
	require.Equal(t, "what is AAPL doing", conv.Title)
	require.Equal(t, "marketData", conv.FocusMode)

	msgs, err := rec.Load(context.Background(), "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, RoleUser, msgs[0].Role)
}

func TestRecordUserTurnStoresAttachedFiles(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)
	ctx := context.Background()

	err := rec.RecordUserTurn(ctx, UserTurn{
		ChatID:    "chat-1",
		MessageID: "msg-1",
		Content:   "summarize the attached filing",
		FocusMode: "webSearch",
		Files:     []string{"file-1", "file-2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"file-1", "file-2"}, chats.conversations["chat-1"].Files)

	// Attachments are recorded at creation; later turns do not rewrite them.
	err = rec.RecordUserTurn(ctx, UserTurn{
		ChatID:    "chat-1",
		MessageID: "msg-2",
		Content:   "and the risk factors?",
		Files:     []string{"file-3"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"file-1", "file-2"}, chats.conversations["chat-1"].Files)
}

func TestRecordUserTurnTitleTruncatedOnRuneBoundary(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)

	long := ""
	for i := 0; i < 60; i++ {
		long += "héé"
	}
	err := rec.RecordUserTurn(context.Background(), UserTurn{
		ChatID:    "chat-1",
		MessageID: "msg-1",
		Content:   long,
	})
	require.NoError(t, err)
	require.Equal(t, maxTitleLen, len([]rune(chats.conversations["chat-1"].Title)))
}

func TestRecordUserTurnAppendsUnseenMessage(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)
	ctx := context.Background()

	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m1", Content: "first"}))
	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m2", Content: "second"}))

	msgs, err := rec.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Less(t, msgs[0].Seq, msgs[1].Seq)
}

func TestRecordUserTurnResendTruncatesLaterMessages(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)
	ctx := context.Background()

	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m1", Content: "first"}))
	require.NoError(t, rec.RecordAssistantTurn(ctx, "c", "a1", "answer one", nil))
	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m2", Content: "second"}))
	require.NoError(t, rec.RecordAssistantTurn(ctx, "c", "a2", "answer two", nil))

	// Edit and resend the second user turn. Only the messages after it go.
	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m2", Content: "second, revised"}))

	msgs, err := rec.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "answer one", msgs[1].Content)
	require.Equal(t, "second, revised", msgs[2].Content)
}

func TestRecordUserTurnResendFirstMessageDropsWholeTail(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)
	ctx := context.Background()

	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m1", Content: "first"}))
	require.NoError(t, rec.RecordAssistantTurn(ctx, "c", "a1", "answer one", nil))
	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m2", Content: "second"}))
	require.NoError(t, rec.RecordAssistantTurn(ctx, "c", "a2", "answer two", nil))

	require.NoError(t, rec.RecordUserTurn(ctx, UserTurn{ChatID: "c", MessageID: "m1", Content: "first"}))

	msgs, err := rec.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "m1", msgs[0].MessageID)
}

func TestRecordAssistantTurnStoresSources(t *testing.T) {
	chats := newFakeChats()
	rec := NewReconciler(chats)
	ctx := context.Background()

	sources := []answer.SourceDoc{{Title: "Apple 10-K", URL: "https://example.com/10k"}}
	require.NoError(t, rec.RecordAssistantTurn(ctx, "c", "a1", "see filing", sources))

	msgs, err := rec.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	decoded := DecodeSources(msgs[0].Metadata)
	require.Len(t, decoded, 1)
	require.Equal(t, "Apple 10-K", decoded[0].Title)
}

func TestDecodeSourcesGarbageMetadata(t *testing.T) {
	require.Nil(t, DecodeSources(nil))
	require.Nil(t, DecodeSources([]byte("not json")))
}
