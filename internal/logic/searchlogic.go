package logic

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/svc"
	"finsight-api/internal/types"
	"finsight-api/pkg/answer"
	"finsight-api/pkg/stream"
)

type SearchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSearchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SearchLogic {
	return &SearchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Validate rejects malformed search requests.
func (l *SearchLogic) Validate(req *types.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.FocusMode) == "" {
		return badRequest("Missing focus mode or query")
	}
	if !validFocusModes[req.FocusMode] {
		return badRequest("Invalid focus mode")
	}
	return nil
}

func (l *SearchLogic) generate(req *types.SearchRequest) (answer.Source, error) {
	if l.svcCtx.Generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	instructions := instructionsFor(l.svcCtx, req.FocusMode)
	if req.FocusMode == FocusMarketData && l.svcCtx.Enricher != nil {
		instructions = l.svcCtx.Enricher.Enrich(l.ctx, instructions, req.Query)
	}

	return l.svcCtx.Generator.Generate(l.ctx, &answer.Request{
		Query:        req.Query,
		History:      convertHistory(req.History),
		Instructions: instructions,
	}), nil
}

// Stream answers the query as NDJSON on w, opening with the init marker.
// Search turns are one-shot and never persisted.
func (l *SearchLogic) Stream(req *types.SearchRequest, w http.ResponseWriter) error {
	src, err := l.generate(req)
	if err != nil {
		return err
	}

	m := stream.New(uuid.NewString())
	if err := m.WriteInit(w); err != nil {
		return err
	}
	return m.Run(l.ctx, src, w, nil)
}

// Collect answers the query in one buffered response.
func (l *SearchLogic) Collect(req *types.SearchRequest) (*types.SearchResponse, error) {
	src, err := l.generate(req)
	if err != nil {
		return nil, err
	}

	content, sources, err := stream.Collect(l.ctx, src)
	if err != nil {
		return nil, err
	}

	resp := &types.SearchResponse{
		Message: content,
		Sources: make([]types.SearchSource, 0, len(sources)),
	}
	for _, doc := range sources {
		resp.Sources = append(resp.Sources, types.SearchSource{
			Title:   doc.Title,
			URL:     doc.URL,
			Snippet: doc.Snippet,
		})
	}
	return resp, nil
}
