package server

import "net/http"

// setupRoutes configures all HTTP handlers
func (s *Server) setupRoutes() {
	authed := func(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return s.corsMiddleware(s.withActor(h))
	}

	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/ws", s.withActor(s.HandleWebSocket))

	s.mux.HandleFunc("/api/reports", authed(s.HandleReports))            // List/submit reports (GET/POST)
	s.mux.HandleFunc("/api/reports/", authed(s.HandleReport))            // Report CRUD and review (GET/PATCH/DELETE, POST /review)
	s.mux.HandleFunc("/api/events", authed(s.HandleEvents))              // List events (GET)
	s.mux.HandleFunc("/api/events/", authed(s.HandleEvent))              // Event read, transition, archive
	s.mux.HandleFunc("/api/decisions", authed(s.HandleDecisions))        // List/record decisions (GET/POST)
	s.mux.HandleFunc("/api/decisions/", authed(s.HandleDecision))        // Decision read and status update
	s.mux.HandleFunc("/api/query/radius", authed(s.HandleRadiusQuery))   // Great-circle radius query (GET)
	s.mux.HandleFunc("/api/query/bounds", authed(s.HandleBoundsQuery))   // Bounding-box query (GET)
	s.mux.HandleFunc("/api/fusion/run", authed(s.HandleFusionRun))       // On-demand fusion pass (POST)
	s.mux.HandleFunc("/api/fusion/config", authed(s.HandleFusionConfig)) // Fusion tunables (GET/PATCH)
	s.mux.HandleFunc("/api/users", authed(s.HandleUsers))                // List/create users (GET/POST)
	s.mux.HandleFunc("/api/users/", authed(s.HandleUser))                // User read/update/deactivate
	s.mux.HandleFunc("/api/audit", authed(s.HandleAuditLog))             // Recent audit entries (GET)
}
