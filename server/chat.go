package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	contractx "github.com/apexfin/account-agent/agent/contract"
)

type chatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"sessionId"`
}

type chatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Metadata  any    `json:"metadata"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := ""
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	result, err := h.agent.ProcessMessage(r.Context(), sessionID, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, contractx.ErrValidation):
		Error(w, http.StatusBadRequest, "message must not be empty")
		return
	case errors.Is(err, contractx.ErrModelInvoke), errors.Is(err, contractx.ErrSchemaViolation):
		log.Error().Err(err).Str("session_id", result.SessionID).Msg("chat turn failed")
		Error(w, http.StatusBadGateway, "The assistant is temporarily unavailable. Please try again.")
		return
	default:
		log.Error().Err(err).Str("session_id", result.SessionID).Msg("chat turn failed")
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := chatResponse{
		SessionID: result.SessionID,
		Reply:     result.Reply,
		Metadata:  map[string]any{},
	}
	if result.Metadata != nil {
		resp.Metadata = result.Metadata
	}
	JSON(w, http.StatusOK, resp)
}
