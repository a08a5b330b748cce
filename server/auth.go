package server

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// actorHeader is the fallback identifier header for clients that cannot set
// an Authorization header (browser EventSource, curl one-liners).
const actorHeader = "X-COPX-Actor"

// actorID extracts the requester identifier from the request. Bearer tokens
// carry the user ID or username directly; identity resolution and the
// active check happen in the workflow engine so denials are audited there.
func actorID(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(actorHeader))
}

// limiterFor returns the per-actor rate limiter, creating it on first use.
func (s *Server) limiterFor(actor string) *rate.Limiter {
	if l, ok := s.limiters.Load(actor); ok {
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Limit(s.cfg.Server.RateLimitPerSecond), s.cfg.Server.RateLimitBurst)
	actual, _ := s.limiters.LoadOrStore(actor, l)
	return actual.(*rate.Limiter)
}

// withActor enforces authentication and per-actor rate limiting, then calls
// the handler with the requester identifier.
func (s *Server) withActor(next func(w http.ResponseWriter, r *http.Request, actor string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorID(r)
		if actor == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if s.cfg.Server.RateLimitPerSecond > 0 && !s.limiterFor(actor).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r, actor)
	}
}

// corsMiddleware adds CORS headers for origins named in server.allowed_origins.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+actorHeader)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
