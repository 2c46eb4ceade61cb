package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/arbiter-games/coordinator/infrastructure/errors"
)

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			writeJSON(w, s.log, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, s.log, http.StatusOK, map[string]string{"status": "ok"})
}

type registerAgentResponse struct {
	AgentID    string `json:"agent_id"`
	ClaimToken string `json:"claim_token"`
}

func (s *Service) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	agentID, claimSecret, err := s.identity.Register(r.Context())
	if err != nil {
		writeError(w, s.log, apperrors.NewInternal("register agent", err))
		return
	}
	writeJSON(w, s.log, http.StatusCreated, registerAgentResponse{AgentID: agentID, ClaimToken: claimSecret})
}

type claimAgentRequest struct {
	ClaimToken string `json:"claim_token"`
}

type claimAgentResponse struct {
	AgentID string `json:"agent_id"`
	Token   string `json:"token"`
}

func (s *Service) handleClaimAgent(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agent_id"]
	var req claimAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	bearer, err := s.identity.Claim(r.Context(), agentID, req.ClaimToken)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, claimAgentResponse{AgentID: agentID, Token: bearer})
}

type createSessionRequest struct {
	Template     string            `json:"template"`
	Participants map[string]string `json:"participants"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Template  string `json:"template"`
	Status    string `json:"status"`
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	agentID, _ := agentIDFrom(r.Context())
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	sess, err := s.sessions.Create(r.Context(), req.Template, req.Participants, agentID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		Template:  sess.TemplateID,
		Status:    string(sess.Status),
	})
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	agentID, _ := agentIDFrom(r.Context())
	sessions, err := s.sessions.List(r.Context(), agentID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionResponse{SessionID: sess.ID, Template: sess.TemplateID, Status: string(sess.Status)})
	}
	writeJSON(w, s.log, http.StatusOK, map[string]interface{}{"sessions": out})
}

type joinSessionRequest struct {
	Role string `json:"role"`
}

func (s *Service) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	agentID, _ := agentIDFrom(r.Context())
	sessionID := mux.Vars(r)["id"]
	var req joinSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}
	sess, err := s.sessions.Join(r.Context(), sessionID, agentID, req.Role)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.notify.Publish(sessionID)
	writeJSON(w, s.log, http.StatusOK, sessionResponse{
		SessionID: sess.ID,
		Template:  sess.TemplateID,
		Status:    string(sess.Status),
	})
}

type readSessionResponse struct {
	SessionID    string      `json:"session_id"`
	Template     string      `json:"template"`
	Status       string      `json:"status"`
	Tick         int64       `json:"tick"`
	Role         string      `json:"role"`
	State        interface{} `json:"state"`
	LegalActions []string    `json:"legal_actions"`
}

func (s *Service) handleReadSession(w http.ResponseWriter, r *http.Request) {
	agentID, _ := agentIDFrom(r.Context())
	sessionID := mux.Vars(r)["id"]
	view, err := s.sessions.Read(r.Context(), sessionID, agentID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, readSessionResponse{
		SessionID:    view.SessionID,
		Template:     view.TemplateID,
		Status:       string(view.Status),
		Tick:         view.Tick,
		Role:         view.Role,
		State:        view.State,
		LegalActions: view.LegalActions,
	})
}

type submitActionRequest struct {
	Action       string `json:"action"`
	ExpectedTick *int64 `json:"expected_tick,omitempty"`
}

type submitActionResponse struct {
	Tick   int64       `json:"tick"`
	State  interface{} `json:"state"`
	Status string      `json:"status"`
}

func (s *Service) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	var req submitActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.log, err)
		return
	}

	res, err := s.arbiter.Submit(r.Context(), bearer, sessionID, req.Action, req.ExpectedTick)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, submitActionResponse{
		Tick:   res.Tick,
		State:  res.State,
		Status: string(res.Status),
	})
}

type logEntryResponse struct {
	Tick      int64           `json:"tick"`
	Role      string          `json:"role"`
	AgentID   string          `json:"agent_id"`
	Action    json.RawMessage `json:"action"`
	CreatedAt string          `json:"created_at"`
}

func (s *Service) handleReadLog(w http.ResponseWriter, r *http.Request) {
	agentID, _ := agentIDFrom(r.Context())
	sessionID := mux.Vars(r)["id"]
	entries, err := s.sessions.ReadLog(r.Context(), sessionID, agentID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryResponse{
			Tick:      e.Tick,
			Role:      e.Role,
			AgentID:   e.AgentID,
			Action:    e.Action,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, s.log, http.StatusOK, map[string]interface{}{"actions": out})
}
