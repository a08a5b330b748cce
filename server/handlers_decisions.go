package server

import (
	"net/http"

	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
	"github.com/ravenfield/copx/workflow"
)

type decisionRequest struct {
	Type           string `json:"type"`
	EventID        string `json:"event_id,omitempty"`
	ReportID       string `json:"report_id,omitempty"`
	Priority       int    `json:"priority"`
	Reasoning      string `json:"reasoning,omitempty"`
	Notes          string `json:"notes,omitempty"`
	RequiresAction bool   `json:"requires_action"`
}

type decisionStatusRequest struct {
	Status      string `json:"status"`
	ActionTaken string `json:"action_taken,omitempty"`
	Version     int64  `json:"version"`
}

// HandleDecisions serves /api/decisions: list (GET) and record (POST).
func (s *Server) HandleDecisions(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filter := store.DecisionFilter{
			AuthorID: q.Get("author_id"),
			EventID:  q.Get("event_id"),
			ReportID: q.Get("report_id"),
		}
		decisions, err := s.engine.ListDecisions(r.Context(), actor, filter)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"decisions": decisions, "count": len(decisions)})
	case http.MethodPost:
		s.recordDecision(w, r, actor)
	}
}

func (s *Server) recordDecision(w http.ResponseWriter, r *http.Request, actor string) {
	var req decisionRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	dt, err := intel.ParseDecisionType(req.Type)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}

	decision, err := s.engine.RecordDecision(r.Context(), actor, workflow.DecisionDraft{
		Type:           dt,
		EventID:        req.EventID,
		ReportID:       req.ReportID,
		Priority:       req.Priority,
		Reasoning:      req.Reasoning,
		Notes:          req.Notes,
		RequiresAction: req.RequiresAction,
	})
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeDecisionRecorded, decision)
	writeJSON(w, http.StatusCreated, decision)
}

// HandleDecision serves /api/decisions/{id} and the status subresource.
func (s *Server) HandleDecision(w http.ResponseWriter, r *http.Request, actor string) {
	parts := extractPathParts(r.URL.Path, "/api/decisions/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "decision ID required")
		return
	}
	id := parts[0]

	if len(parts) > 1 && parts[1] == "status" {
		s.updateDecisionStatus(w, r, actor, id)
		return
	}

	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	decision, err := s.engine.GetDecision(r.Context(), actor, id)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) updateDecisionStatus(w http.ResponseWriter, r *http.Request, actor, id string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req decisionStatusRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	status, err := intel.ParseApprovalStatus(req.Status)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}

	decision, err := s.engine.UpdateDecisionStatus(r.Context(), actor, id, status, req.ActionTaken, req.Version)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeDecisionUpdated, decision)
	writeJSON(w, http.StatusOK, decision)
}
