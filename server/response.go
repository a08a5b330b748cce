package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/errors"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeDomainError maps a workflow error onto the wire: HTTP status from
// the sentinel it unwraps to, message from the error itself.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err.Error())
}

// writeEngineError is writeDomainError plus denial redaction: the
// role-vs-clearance sub-reason is shown only to reviewer-capable
// requesters unless access.reveal_denial_reasons is set. The sub-reason is
// always in the audit trail regardless of what the requester sees.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, actor string, err error) {
	var denied *access.DeniedError
	if errors.As(err, &denied) {
		requester, lookupErr := s.users.Lookup(r.Context(), actor)
		if lookupErr != nil {
			requester = nil
		}
		msg := "access denied"
		d := access.Decision{Reason: denied.Reason}
		if reason := access.RedactReason(requester, d, s.cfg.Access.RevealDenialReasons); reason != "" {
			msg = fmt.Sprintf("access denied: %s", reason)
		}
		writeError(w, http.StatusForbidden, msg)
		return
	}
	writeDomainError(w, err)
}

// statusForError translates the error taxonomy into HTTP status codes.
// Both transition and version conflicts are 409: the client holds a view
// of the entity that no longer matches the server's.
func statusForError(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsAccessDenied(err):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrValidation):
		return http.StatusBadRequest
	case errors.IsVersionConflict(err):
		return http.StatusConflict
	case errors.Is(err, errors.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return err
	}
	return nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// requireMethods checks if the request method matches one of the expected methods
func requireMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// extractPathParts extracts path segments after removing a prefix
func extractPathParts(urlPath, prefix string) []string {
	return strings.Split(strings.TrimPrefix(urlPath, prefix), "/")
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
