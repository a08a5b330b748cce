package intel

import (
	"fmt"

	"github.com/ravenfield/copx/errors"
)

// ValidationError reports a malformed or missing input field with enough
// detail for the caller to correct it. Unwraps to errors.ErrValidation.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q: %s", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error { return errors.ErrValidation }

// Invalid returns a ValidationError for field violating rule.
func Invalid(field, rule string) error {
	return &ValidationError{Field: field, Rule: rule}
}

// ValidateDraftReport checks the content fields an analyst submits.
func ValidateDraftReport(r *Report) error {
	if r.Title == "" {
		return Invalid("title", "must not be empty")
	}
	if r.Content == "" {
		return Invalid("content", "must not be empty")
	}
	switch r.Type {
	case TypeSOCMINT, TypeSIGINT, TypeHUMINT:
	default:
		return Invalid("type", fmt.Sprintf("unknown intelligence type %q", r.Type))
	}
	if !r.Classification.Valid() {
		return Invalid("classification", "must be one of the four defined levels")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return Invalid("confidence", "must be in [0, 1]")
	}
	if r.EventTime.IsZero() {
		return Invalid("event_time", "must be set")
	}
	if r.Location != nil {
		if r.Location.Lat < -90 || r.Location.Lat > 90 {
			return Invalid("location.lat", "must be in [-90, 90]")
		}
		if r.Location.Lon < -180 || r.Location.Lon > 180 {
			return Invalid("location.lon", "must be in [-180, 180]")
		}
	}
	return nil
}

// ValidateDraftDecision checks a decision at creation time. Decision types
// that commit forces or resources must carry their reasoning trail.
func ValidateDraftDecision(d *Decision) error {
	switch d.Type {
	case DecisionReportApproval, DecisionEventApproval, DecisionOperational,
		DecisionIntelligenceAssessment, DecisionResourceAllocation, DecisionMissionAuthorization:
	default:
		return Invalid("type", fmt.Sprintf("unknown decision type %q", d.Type))
	}
	if d.Type.RequiresJustification() && d.Reasoning == "" {
		return Invalid("reasoning", fmt.Sprintf("required for decision type %s", d.Type))
	}
	if d.EventID == "" && d.ReportID == "" {
		return Invalid("event_id", "decision must reference an event or a report")
	}
	if d.Priority < 0 {
		return Invalid("priority", "must not be negative")
	}
	return nil
}
