// Package audit records security-relevant actions: access decisions,
// lifecycle transitions, and classification parse fallbacks. The trail is
// append-only; nothing in the system updates or deletes entries.
package audit

import (
	"context"
	"time"
)

// Outcome of an audited action.
const (
	OutcomeGranted = "GRANTED"
	OutcomeDenied  = "DENIED"
	OutcomeError   = "ERROR"
)

// Well-known action names. Callers may record additional actions; these
// cover the core lifecycle.
const (
	ActionSubmitReport    = "submit_report"
	ActionUpdateReport    = "update_report"
	ActionReviewReport    = "review_report"
	ActionDeleteReport    = "delete_report"
	ActionTransitionEvent = "transition_event"
	ActionArchiveEvent    = "archive_event"
	ActionRecordDecision  = "record_decision"
	ActionUpdateDecision  = "update_decision_status"
	ActionRadiusQuery     = "query_within_radius"
	ActionBoundsQuery     = "query_within_bounds"
	ActionRunFusion       = "run_fusion"
	ActionParseFallback   = "classification_parse_fallback"
)

// Entry is one audit record. Time is set by the recorder when zero.
type Entry struct {
	Time       time.Time
	ActorID    string
	Action     string
	EntityKind string
	EntityID   string
	Outcome    string
	Reason     string
	Detail     string
}

// Recorder accepts audit entries. Implementations must never fail the
// calling operation: recording errors are logged, not returned.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Log is a readable trail: a Recorder whose entries can be listed back,
// newest first.
type Log interface {
	Recorder
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Nop discards every entry. Used in tests and tools that have no trail.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
