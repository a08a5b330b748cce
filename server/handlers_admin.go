package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/intel"
)

const defaultAuditLimit = 100

type userRequest struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Clearance string `json:"clearance"`
	Active    *bool  `json:"active,omitempty"`
}

// requireCapability resolves the actor and checks a capability the server
// itself gates on. Admin surfaces do not go through the workflow engine.
func (s *Server) requireCapability(w http.ResponseWriter, r *http.Request, actor string, cap access.Capability) (*intel.User, bool) {
	user, err := s.users.Lookup(r.Context(), actor)
	if err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return nil, false
	}
	if d := s.gate.CheckCapability(user, cap); !d.Granted {
		writeError(w, http.StatusForbidden, "access denied")
		return nil, false
	}
	return user, true
}

// HandleUsers serves /api/users: list (GET) and create (POST), both gated
// on the manage-users capability.
func (s *Server) HandleUsers(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if _, ok := s.requireCapability(w, r, actor, access.CapManageUsers); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		users, err := s.users.List(r.Context())
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
	case http.MethodPost:
		s.createUser(w, r, actor)
	}
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request, actor string) {
	var req userRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	u, ok := s.userFromRequest(w, r, actor, req)
	if !ok {
		return
	}
	if u.ID == "" {
		u.ID = "user-" + uuid.NewString()
	}
	u.Active = true
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := s.users.Create(r.Context(), u); err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.logger.Infow("User created", "user_id", u.ID, "role", u.Role, "clearance", u.Clearance.String())
	writeJSON(w, http.StatusCreated, u)
}

// HandleUser serves /api/users/{id}: update (PATCH) and deactivate via the
// deactivate subresource (POST).
func (s *Server) HandleUser(w http.ResponseWriter, r *http.Request, actor string) {
	parts := extractPathParts(r.URL.Path, "/api/users/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "user ID required")
		return
	}
	id := parts[0]

	if _, ok := s.requireCapability(w, r, actor, access.CapManageUsers); !ok {
		return
	}

	if len(parts) > 1 && parts[1] == "deactivate" {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		if err := s.users.Deactivate(r.Context(), id); err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "id": id})
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := s.users.Lookup(r.Context(), id)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPatch:
		var req userRequest
		if readJSON(w, r, &req) != nil {
			return
		}
		u, ok := s.userFromRequest(w, r, actor, req)
		if !ok {
			return
		}
		u.ID = id
		current, err := s.users.Lookup(r.Context(), id)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		u.Active = current.Active
		if req.Active != nil {
			u.Active = *req.Active
		}
		if err := s.users.Update(r.Context(), u); err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) userFromRequest(w http.ResponseWriter, r *http.Request, actor string, req userRequest) (*intel.User, bool) {
	role, err := intel.ParseRole(req.Role)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return nil, false
	}
	// An unrecognized clearance grants the least, not the most.
	level := s.parseLevel(r, actor, req.Clearance)
	return &intel.User{
		ID:        req.ID,
		Username:  req.Username,
		Role:      role,
		Clearance: level,
	}, true
}

// HandleAuditLog serves /api/audit: the newest trail entries, gated on the
// audit-viewing capability.
func (s *Server) HandleAuditLog(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := s.requireCapability(w, r, actor, access.CapViewAuditLogs); !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.trail.Recent(r.Context(), limit)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// HandleHealth serves /health without authentication.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt) / time.Second),
		"ws_clients":     clients,
	})
}
