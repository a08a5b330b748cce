package server

import (
	"net/http"
	"time"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/fusion"
)

type fusionConfigRequest struct {
	RadiusMeters   *float64 `json:"radius_meters,omitempty"`
	WindowSeconds  *int64   `json:"window_seconds,omitempty"`
	Compatibility  *string  `json:"compatibility,omitempty"`
	BonusPerSource *float64 `json:"bonus_per_source,omitempty"`
	MaxBonus       *float64 `json:"max_bonus,omitempty"`
	EventType      *string  `json:"event_type,omitempty"`
}

type fusionConfigResponse struct {
	RadiusMeters   float64 `json:"radius_meters"`
	WindowSeconds  int64   `json:"window_seconds"`
	Compatibility  string  `json:"compatibility"`
	BonusPerSource float64 `json:"bonus_per_source"`
	MaxBonus       float64 `json:"max_bonus"`
	EventType      string  `json:"event_type"`
}

// HandleFusionRun serves POST /api/fusion/run: an on-demand fusion pass
// over approved reports. Reruns are idempotent; only new clusters produce
// events.
func (s *Server) HandleFusionRun(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.fusion == nil {
		writeError(w, http.StatusServiceUnavailable, "fusion service not configured")
		return
	}

	events, err := s.fusion.Run(r.Context(), actor)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	for _, ev := range events {
		s.Notify(NoticeEventFused, ev)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "created": len(events)})
}

// HandleFusionConfig serves /api/fusion/config: read (GET) and hot-adjust
// (PATCH) the fusion tunables. Absent PATCH fields keep their value.
func (s *Server) HandleFusionConfig(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPatch) {
		return
	}
	if s.fusion == nil {
		writeError(w, http.StatusServiceUnavailable, "fusion service not configured")
		return
	}

	if r.Method == http.MethodPatch {
		user, err := s.users.Lookup(r.Context(), actor)
		if err != nil {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		if d := s.gate.CheckCapability(user, access.CapFusionAnalysis); !d.Granted {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}

		var req fusionConfigRequest
		if readJSON(w, r, &req) != nil {
			return
		}
		cfg := s.fusion.Config()
		if req.RadiusMeters != nil {
			cfg.RadiusMeters = *req.RadiusMeters
		}
		if req.WindowSeconds != nil {
			cfg.Window = time.Duration(*req.WindowSeconds) * time.Second
		}
		if req.Compatibility != nil {
			cfg.Compatibility = fusion.CompatibilityRule(*req.Compatibility)
		}
		if req.BonusPerSource != nil {
			cfg.BonusPerSource = *req.BonusPerSource
		}
		if req.MaxBonus != nil {
			cfg.MaxBonus = *req.MaxBonus
		}
		if req.EventType != nil {
			cfg.EventType = *req.EventType
		}
		s.fusion.SetConfig(cfg)
		s.logger.Infow("Fusion config updated", "actor", actor, "radius_m", cfg.RadiusMeters, "window", cfg.Window)
	}

	cfg := s.fusion.Config()
	writeJSON(w, http.StatusOK, fusionConfigResponse{
		RadiusMeters:   cfg.RadiusMeters,
		WindowSeconds:  int64(cfg.Window / time.Second),
		Compatibility:  string(cfg.Compatibility),
		BonusPerSource: cfg.BonusPerSource,
		MaxBonus:       cfg.MaxBonus,
		EventType:      cfg.EventType,
	})
}
