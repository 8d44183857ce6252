package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"finsight-api/internal/logic"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

// SearchHandler answers a one-shot query. With stream=true the reply is the
// same NDJSON stream the chat surface uses, prefixed with an init event;
// otherwise the full answer is collected and returned as a single JSON body.
func SearchHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SearchRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		l := logic.NewSearchLogic(r.Context(), svcCtx)
		if err := l.Validate(&req); err != nil {
			writeValidationError(w, err)
			return
		}
		if svcCtx.Generator == nil {
			writeError(w, http.StatusServiceUnavailable, logic.ErrGeneratorUnavailable.Error())
			return
		}

		if !req.Stream {
			resp, err := l.Collect(&req)
			if err != nil {
				logx.WithContext(r.Context()).Errorf("search collect: %v", err)
				writeError(w, http.StatusInternalServerError, "An error has occurred.")
				return
			}
			httpx.OkJsonCtx(r.Context(), w, resp)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache, no-transform")
		w.Header().Set("Connection", "keep-alive")

		if err := l.Stream(&req, w); err != nil {
			if !errors.Is(err, context.Canceled) {
				logx.WithContext(r.Context()).Errorf("search stream: %v", err)
			}
		}
	}
}
