package server

import (
	"net/http"

	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

type eventTransitionRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// HandleEvents serves /api/events: list with optional status filtering.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	filter := store.EventFilter{
		Status:     intel.EventStatus(q.Get("status")),
		ActiveOnly: q.Get("active") == "true",
	}

	events, err := s.engine.ListEvents(r.Context(), actor, filter)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
}

// HandleEvent serves /api/events/{id} plus the transition and archive
// subresources.
func (s *Server) HandleEvent(w http.ResponseWriter, r *http.Request, actor string) {
	parts := extractPathParts(r.URL.Path, "/api/events/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "event ID required")
		return
	}
	id := parts[0]

	if len(parts) > 1 {
		switch parts[1] {
		case "transition":
			s.transitionEvent(w, r, actor, id)
		case "archive":
			s.archiveEvent(w, r, actor, id)
		default:
			writeError(w, http.StatusNotFound, "unknown event subresource")
		}
		return
	}

	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	event, err := s.engine.GetEvent(r.Context(), actor, id)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) transitionEvent(w http.ResponseWriter, r *http.Request, actor, id string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req eventTransitionRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	event, err := s.engine.TransitionEvent(r.Context(), actor, id, intel.EventStatus(req.Status), req.Version)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeEventTransitioned, event)
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) archiveEvent(w http.ResponseWriter, r *http.Request, actor, id string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req eventTransitionRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	event, err := s.engine.ArchiveEvent(r.Context(), actor, id, req.Version)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeEventTransitioned, event)
	writeJSON(w, http.StatusOK, event)
}
