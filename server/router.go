// Package server exposes the agent loop, persona chat, and session store
// over HTTP.
//
// Information Hiding:
// - Wire shapes and validation internalized
// - Handlers depend on a narrow Runner interface, not the agent concretely

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/richinex/didact/agent"
	"github.com/richinex/didact/llm"
	"github.com/richinex/didact/model"
	"github.com/richinex/didact/storage"
)

// Runner drives one agent loop run. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, history []model.Message) (agent.Result, error)
}

var _ Runner = (*agent.Agent)(nil)

// Server holds the handler dependencies.
type Server struct {
	runner   Runner
	provider llm.Provider
	store    storage.ConversationStorage
	persona  string
	logger   *slog.Logger
}

// New creates a server. The provider serves the persona chat endpoint;
// the runner serves the agent endpoint; the store backs the session
// endpoints.
func New(runner Runner, provider llm.Provider, store storage.ConversationStorage, persona string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:   runner,
		provider: provider,
		store:    store,
		persona:  persona,
		logger:   logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agent", s.handleAgent)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions", s.handleSessionList)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.logRequests(mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
