// Package server exposes the HTTP API: the conversational chat endpoint, the
// direct account creation endpoint, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	accountx "github.com/apexfin/account-agent/agent/account"
	"github.com/apexfin/account-agent/agent/orchestrator"
)

const (
	serviceName    = "Apex Financial API"
	serviceVersion = "2.0.0"
)

// Agent runs one conversational turn.
type Agent interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (orchestrator.Result, error)
}

type Handler struct {
	agent   Agent
	factory *accountx.Factory
}

func NewHandler(agent Agent, factory *accountx.Factory) *Handler {
	return &Handler{agent: agent, factory: factory}
}

// Routes builds the router with the standard middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors([]string{"*"}))

	r.Get("/api/health", h.health)
	r.Post("/api/chat", h.chat)
	r.Post("/api/accounts", h.createAccount)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
