// Package intel defines the COPX entity model: users, intelligence reports,
// fused events, and command decisions, together with the enums whose methods
// carry the platform's business rules.
//
// Entities are plain records. All mutation happens through the workflow
// engine's transition functions; nothing here touches a database. Every
// mutable entity carries a Version used for optimistic concurrency at the
// store boundary.
package intel

import (
	"time"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/geo"
)

// User is the identity the core reads. Identity lifecycle (credentials,
// sessions) is owned by the identity collaborator; the core consumes role,
// clearance, and the active flag only.
type User struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Role      Role           `json:"role"`
	Clearance classify.Level `json:"clearance"`
	Active    bool           `json:"active"`
}

// Report is a single piece of submitted intelligence.
type Report struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Type           IntelType         `json:"type"`
	Classification classify.Level    `json:"classification"`
	Location       *geo.Point        `json:"location,omitempty"`
	EventTime      time.Time         `json:"event_time"`
	Confidence     float64           `json:"confidence"`
	SubmittedBy    string            `json:"submitted_by"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	Status         ReportStatus      `json:"status"`
	ReviewedBy     string            `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time        `json:"reviewed_at,omitempty"`
	ReviewComments string            `json:"review_comments,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Version        int64             `json:"version"`
}

// Event is a correlated picture element, usually synthesized by fusion from
// several source reports. Its classification always dominates the
// classification of every source report.
type Event struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	Location       *geo.Point     `json:"location,omitempty"`
	Confidence     float64        `json:"confidence"`
	Classification classify.Level `json:"classification"`
	Status         EventStatus    `json:"status"`
	SourceReports  []string       `json:"source_reports,omitempty"`
	Fusion         *FusionRecord  `json:"fusion,omitempty"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Version        int64          `json:"version"`
}

// FusionRecord is the audit trail of how an event was formed: which reports
// merged, under which clustering parameters, and how the confidence score
// was computed. Kept on the event so HQ can always explain the picture.
type FusionRecord struct {
	ReportIDs      []string  `json:"report_ids"`
	RadiusMeters   float64   `json:"radius_meters"`
	WindowSeconds  int64     `json:"window_seconds"`
	Compatibility  string    `json:"compatibility"`
	MeanConfidence float64   `json:"mean_confidence"`
	Corroboration  float64   `json:"corroboration_bonus"`
	FusedAt        time.Time `json:"fused_at"`
}

// Decision is a command decision recorded by HQ against an event and/or a
// report. Immutable after creation except ApprovalStatus and ActionTaken,
// and those only while the status is non-final.
type Decision struct {
	ID             string         `json:"id"`
	AuthorID       string         `json:"author_id"`
	Type           DecisionType   `json:"type"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	EventID        string         `json:"event_id,omitempty"`
	ReportID       string         `json:"report_id,omitempty"`
	Priority       int            `json:"priority"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	RequiresAction bool           `json:"requires_action"`
	ActionTaken    string         `json:"action_taken,omitempty"`
	DecidedAt      time.Time      `json:"decided_at"`
	Version        int64          `json:"version"`
}

// CloneMetadata returns a copy of a metadata map so callers can patch
// without aliasing the stored record.
func CloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
