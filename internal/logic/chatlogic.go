package logic

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/history"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
	"finsight-api/pkg/answer"
	"finsight-api/pkg/journal"
	"finsight-api/pkg/llm"
	"finsight-api/pkg/stream"
)

type ChatLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChatLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatLogic {
	return &ChatLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Validate rejects malformed chat requests before any streaming starts. It
// also fills in defaults: a missing focus mode means web search, a missing
// message id is generated server-side.
func (l *ChatLogic) Validate(req *types.ChatRequest) error {
	if strings.TrimSpace(req.Message.Content) == "" {
		return badRequest("Please provide a message to process")
	}
	if req.ChatID == "" {
		req.ChatID = req.Message.ChatID
	}
	if strings.TrimSpace(req.ChatID) == "" {
		return badRequest("Please provide a chat id")
	}
	if req.Message.MessageID == "" {
		req.Message.MessageID = uuid.NewString()
	}
	if req.FocusMode == "" {
		req.FocusMode = FocusWebSearch
	}
	if !validFocusModes[req.FocusMode] {
		return badRequest("Invalid focus mode")
	}
	return nil
}

// Chat streams the answer for one user turn as NDJSON to w. History
// reconciliation runs alongside generation; the assistant turn is persisted
// only after the stream ends cleanly.
func (l *ChatLogic) Chat(req *types.ChatRequest, w http.ResponseWriter) error {
	if l.svcCtx.Generator == nil {
		return ErrGeneratorUnavailable
	}

	assistantMessageID := uuid.NewString()

	instructions := instructionsFor(l.svcCtx, req.FocusMode)
	if req.FocusMode == FocusMarketData && l.svcCtx.Enricher != nil {
		instructions = l.svcCtx.Enricher.Enrich(l.ctx, instructions, req.Message.Content)
	}

	// Reconcile the user turn while the answer is being generated. The
	// detached context keeps a client disconnect from losing the write.
	var userSaved sync.WaitGroup
	if l.svcCtx.History != nil {
		userSaved.Add(1)
		saveCtx := context.WithoutCancel(l.ctx)
		go func() {
			defer userSaved.Done()
			err := l.svcCtx.History.RecordUserTurn(saveCtx, history.UserTurn{
				ChatID:    req.ChatID,
				MessageID: req.Message.MessageID,
				Content:   req.Message.Content,
				FocusMode: req.FocusMode,
				Files:     req.Files,
			})
			if err != nil {
				logx.WithContext(saveCtx).Errorf("chat %s: reconcile user turn: %v", req.ChatID, err)
			}
		}()
	}

	src := l.svcCtx.Generator.Generate(l.ctx, &answer.Request{
		Query:        req.Message.Content,
		History:      convertHistory(req.History),
		Instructions: instructions,
	})

	m := stream.New(assistantMessageID)
	err := m.Run(l.ctx, src, w, func(content string, sources []answer.SourceDoc) {
		if l.svcCtx.History == nil {
			return
		}
		saveCtx := context.WithoutCancel(l.ctx)
		// The user turn must land first so the assistant message sorts after it.
		userSaved.Wait()
		if err := l.svcCtx.History.RecordAssistantTurn(saveCtx, req.ChatID, assistantMessageID, content, sources); err != nil {
			logx.WithContext(saveCtx).Errorf("chat %s: persist assistant turn: %v", req.ChatID, err)
		}
	})

	l.journal(req, assistantMessageID, m, err)
	return err
}

func (l *ChatLogic) journal(req *types.ChatRequest, assistantMessageID string, m *stream.Multiplexer, runErr error) {
	if l.svcCtx.Journal == nil {
		return
	}
	rec := &journal.RequestRecord{
		ChatID:       req.ChatID,
		MessageID:    assistantMessageID,
		FocusMode:    req.FocusMode,
		Query:        req.Message.Content,
		PromptDigest: l.svcCtx.PromptDigests[req.FocusMode],
		AnswerChars:  len(m.Content()),
		Success:      m.State() == stream.StateCompleted,
	}
	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}
	if _, err := l.svcCtx.Journal.WriteRequest(rec); err != nil {
		l.Errorf("journal write: %v", err)
	}
}

// convertHistory maps wire transcript pairs to chat messages. The wire role
// "human" is the user; anything else is treated as the assistant. Malformed
// pairs are skipped.
func convertHistory(pairs [][]string) []llm.Message {
	out := make([]llm.Message, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 || pair[1] == "" {
			continue
		}
		role := llm.RoleAssistant
		if pair[0] == "human" {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: pair[1]})
	}
	return out
}
