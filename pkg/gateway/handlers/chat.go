package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/chat"
)

// ChatHandler runs one turn of the auxiliary text chat.
type ChatHandler struct {
	Registry *chat.Registry
	Logger   *slog.Logger
}

type chatTurnRequest struct {
	SessionID      string `json:"session_id,omitempty"`
	Message        string `json:"message"`
	Topic          string `json:"topic,omitempty"`
	SectionTitle   string `json:"section_title,omitempty"`
	SectionContext string `json:"section_context,omitempty"`
}

type chatTurnResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatTurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apierror.CodeBadRequest, "invalid json body")
		return
	}

	result, err := h.Registry.Turn(r.Context(), chat.TurnRequest{
		SessionID:      req.SessionID,
		Message:        req.Message,
		Topic:          req.Topic,
		SectionTitle:   req.SectionTitle,
		SectionContext: req.SectionContext,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, r, apierror.CodeBadRequest, "message is required")
		case errors.Is(err, chat.ErrMessageTooLong):
			writeError(w, r, apierror.CodeBadRequest, "message exceeds maximum length")
		case errors.Is(err, chat.ErrNotFound):
			writeError(w, r, apierror.CodeNotFound, "chat session not found")
		default:
			if h.Logger != nil {
				h.Logger.Warn("chat turn failed", "error", err)
			}
			writeError(w, r, apierror.CodeInternal, "chat turn failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(chatTurnResponse{SessionID: result.SessionID, Reply: result.Reply})
}

// ChatDeleteHandler drops one chat session.
type ChatDeleteHandler struct {
	Registry *chat.Registry
}

func (h ChatDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Registry.Delete(r.PathValue("id")) {
		writeError(w, r, apierror.CodeNotFound, "chat session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
