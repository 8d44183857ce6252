package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"finsight-api/internal/logic"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

// ChatHandler streams the answer for one conversation turn as newline
// delimited JSON. Validation failures are reported as a regular JSON error
// before any stream bytes are written.
func ChatHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		l := logic.NewChatLogic(r.Context(), svcCtx)
		if err := l.Validate(&req); err != nil {
			writeValidationError(w, err)
			return
		}
		if svcCtx.Generator == nil {
			writeError(w, http.StatusServiceUnavailable, logic.ErrGeneratorUnavailable.Error())
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache, no-transform")
		w.Header().Set("Connection", "keep-alive")

		if err := l.Chat(&req, w); err != nil {
			// Headers are already sent; the stream either carried an error
			// event or the client went away. Log and let the connection close.
			if !errors.Is(err, context.Canceled) {
				logx.WithContext(r.Context()).Errorf("chat stream: %v", err)
			}
		}
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var bad *logic.BadRequestError
	if errors.As(err, &bad) {
		writeError(w, http.StatusBadRequest, bad.Msg)
		return
	}
	if errors.Is(err, logic.ErrGeneratorUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "An error has occurred.")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Message: msg})
}
