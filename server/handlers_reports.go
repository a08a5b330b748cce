package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
	"github.com/ravenfield/copx/workflow"
)

// reportRequest is the submit payload. Enums arrive as strings and are
// parsed here so the engine only ever sees typed values.
type reportRequest struct {
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Type           string            `json:"type"`
	Classification string            `json:"classification"`
	Location       *geo.Point        `json:"location,omitempty"`
	EventTime      time.Time         `json:"event_time"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// reportPatchRequest carries partial edits. Absent fields stay untouched.
type reportPatchRequest struct {
	Title          *string           `json:"title,omitempty"`
	Content        *string           `json:"content,omitempty"`
	Type           *string           `json:"type,omitempty"`
	Classification *string           `json:"classification,omitempty"`
	Location       *geo.Point        `json:"location,omitempty"`
	ClearLocation  bool              `json:"clear_location,omitempty"`
	EventTime      *time.Time        `json:"event_time,omitempty"`
	Confidence     *float64          `json:"confidence,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Version        int64             `json:"version"`
}

type reviewRequest struct {
	Verdict  string `json:"verdict"`
	Comments string `json:"comments,omitempty"`
	Version  int64  `json:"version"`
}

// HandleReports serves /api/reports: list (GET) and submit (POST).
func (s *Server) HandleReports(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listReports(w, r, actor)
	case http.MethodPost:
		s.submitReport(w, r, actor)
	}
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request, actor string) {
	q := r.URL.Query()
	filter := store.ReportFilter{
		Status:      intel.ReportStatus(q.Get("status")),
		SubmittedBy: q.Get("submitted_by"),
	}
	if t := q.Get("type"); t != "" {
		it, err := intel.ParseIntelType(t)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		filter.Type = it
	}
	if since := q.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = ts
	}
	if until := q.Get("until"); until != "" {
		ts, err := time.Parse(time.RFC3339, until)
		if err != nil {
			writeError(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		filter.Until = ts
	}

	reports, err := s.engine.ListReports(r.Context(), actor, filter)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
}

func (s *Server) submitReport(w http.ResponseWriter, r *http.Request, actor string) {
	var req reportRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	draft, ok := s.draftFromRequest(w, r, actor, req)
	if !ok {
		return
	}

	report, err := s.engine.SubmitReport(r.Context(), actor, draft)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeReportSubmitted, report)
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) draftFromRequest(w http.ResponseWriter, r *http.Request, actor string, req reportRequest) (workflow.ReportDraft, bool) {
	level := s.parseLevel(r, actor, req.Classification)
	it, err := intel.ParseIntelType(req.Type)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return workflow.ReportDraft{}, false
	}
	return workflow.ReportDraft{
		Title:          req.Title,
		Content:        req.Content,
		Type:           it,
		Classification: level,
		Location:       req.Location,
		EventTime:      req.EventTime,
		Confidence:     req.Confidence,
		Metadata:       req.Metadata,
	}, true
}

// HandleReport serves /api/reports/{id} and /api/reports/{id}/review.
func (s *Server) HandleReport(w http.ResponseWriter, r *http.Request, actor string) {
	parts := extractPathParts(r.URL.Path, "/api/reports/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "report ID required")
		return
	}
	id := parts[0]

	if len(parts) > 1 && parts[1] == "review" {
		s.reviewReport(w, r, actor, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		report, err := s.engine.GetReport(r.Context(), actor, id)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case http.MethodPatch:
		s.updateReport(w, r, actor, id)
	case http.MethodDelete:
		s.deleteReport(w, r, actor, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request, actor, id string) {
	var req reportPatchRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	patch := workflow.ReportPatch{
		Title:         req.Title,
		Content:       req.Content,
		Location:      req.Location,
		ClearLocation: req.ClearLocation,
		EventTime:     req.EventTime,
		Confidence:    req.Confidence,
		Metadata:      req.Metadata,
	}
	if req.Type != nil {
		it, err := intel.ParseIntelType(*req.Type)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		patch.Type = &it
	}
	if req.Classification != nil {
		level := s.parseLevel(r, actor, *req.Classification)
		patch.Classification = &level
	}

	report, err := s.engine.UpdateReport(r.Context(), actor, id, patch, req.Version)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeReportUpdated, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) reviewReport(w http.ResponseWriter, r *http.Request, actor, id string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req reviewRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	report, err := s.engine.ReviewReport(r.Context(), actor, id, workflow.ReviewVerdict(req.Verdict), req.Comments, req.Version)
	if err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeReportReviewed, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request, actor, id string) {
	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "version query parameter required")
		return
	}

	if err := s.engine.DeleteReport(r.Context(), actor, id, version); err != nil {
		s.writeEngineError(w, r, actor, err)
		return
	}
	s.Notify(NoticeReportDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
