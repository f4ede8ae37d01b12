package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/richinex/didact/model"
)

type agentRequest struct {
	History   []model.Message `json:"history"`
	SessionID string          `json:"session_id,omitempty"`
	Persist   bool            `json:"persist,omitempty"`
}

type agentResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
	Exhausted bool   `json:"exhausted,omitempty"`
}

// validateHistory applies the boundary checks shared by the agent and
// chat endpoints.
func validateHistory(history []model.Message) error {
	if len(history) == 0 {
		return fmt.Errorf("history is required and must be a non-empty array of messages")
	}
	for i, msg := range history {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	if err := validateHistory(req.History); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	ctx := r.Context()

	sessionID := req.SessionID
	if sessionID == "" && req.Persist {
		sessionID = uuid.NewString()
	}

	history := req.History
	if sessionID != "" {
		stored, err := s.store.Load(ctx, sessionID)
		if err != nil {
			s.logger.Error("session load failed", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to load session.")
			return
		}
		history = append(stored, req.History...)
	}

	result, err := s.runner.Run(ctx, history)
	if err != nil {
		// Provider internals stay out of the response body.
		s.logger.Error("agent run failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "The agent failed to produce a response.")
		return
	}

	if sessionID != "" {
		if err := s.store.Save(ctx, sessionID, result.Messages); err != nil {
			s.logger.Error("session save failed", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to save session.")
			return
		}
	}

	writeJSON(w, http.StatusOK, agentResponse{
		Response:  result.Text,
		SessionID: sessionID,
		Exhausted: result.Exhausted,
	})
}

type chatRequest struct {
	History []model.Message `json:"history"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	if err := validateHistory(req.History); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}
	for i, msg := range req.History {
		for _, part := range msg.Parts {
			if part.FunctionCall != nil || part.FunctionResponse != nil {
				writeInvalidRequest(w, fmt.Sprintf("history[%d]: chat accepts text messages only", i))
				return
			}
		}
	}

	text, _, err := s.provider.Generate(r.Context(), req.History, s.persona)
	if err != nil {
		s.logger.Error("chat generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "The chat failed to produce a response.")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: text})
}

type sessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type sessionResponse struct {
	SessionID string          `json:"session_id"`
	History   []model.Message `json:"history"`
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("session list failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to list sessions.")
		return
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: sessions})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	exists, err := s.store.Exists(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to look up session.")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, errorCodeNotFound, "Session not found.")
		return
	}

	history, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session load failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to load session.")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, History: history})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	exists, err := s.store.Exists(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to look up session.")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, errorCodeNotFound, "Session not found.")
		return
	}

	if err := s.store.Delete(r.Context(), sessionID); err != nil {
		s.logger.Error("session delete failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, errorCodeRuntime, "Failed to delete session.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
