package workflow

import (
	"context"
	"time"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

// ReportDraft is the content an analyst submits. Status, submitter, and
// version are assigned by the engine, never by the caller.
type ReportDraft struct {
	Title          string
	Content        string
	Type           intel.IntelType
	Classification classify.Level
	Location       *geo.Point
	EventTime      time.Time
	Confidence     float64
	Metadata       map[string]string
}

// ReportPatch carries content-field edits. Nil fields are left unchanged;
// ClearLocation removes the location outright.
type ReportPatch struct {
	Title          *string
	Content        *string
	Type           *intel.IntelType
	Classification *classify.Level
	Location       *geo.Point
	ClearLocation  bool
	EventTime      *time.Time
	Confidence     *float64
	Metadata       map[string]string
}

// SubmitReport validates the draft and persists it as PENDING. The
// requester needs the write capability for the draft's intelligence type
// and clearance dominating the draft's classification: nobody submits
// outside their discipline or above their own clearance.
func (e *Engine) SubmitReport(ctx context.Context, requesterID string, draft ReportDraft) (*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CanSubmitType(user, draft.Type, draft.Classification); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionSubmitReport, "report", "", d)
	}

	r := &intel.Report{
		ID:             e.newID(),
		Title:          draft.Title,
		Content:        draft.Content,
		Type:           draft.Type,
		Classification: draft.Classification,
		Location:       draft.Location,
		EventTime:      draft.EventTime,
		Confidence:     draft.Confidence,
		SubmittedBy:    user.ID,
		SubmittedAt:    e.now(),
		Status:         intel.ReportPending,
		Metadata:       intel.CloneMetadata(draft.Metadata),
	}
	if err := intel.ValidateDraftReport(r); err != nil {
		return nil, err
	}
	if err := e.reports.Create(ctx, r); err != nil {
		return nil, err
	}

	e.record(ctx, user.ID, audit.ActionSubmitReport, "report", r.ID, audit.OutcomeGranted, "")
	e.logger.Infow("Report submitted",
		"report_id", r.ID,
		"type", r.Type,
		"classification", r.Classification.String(),
		"submitted_by", user.ID,
	)
	return r, nil
}

// UpdateReport applies a content patch. Only the submitter may edit, and
// only while the report's status is non-terminal.
func (e *Engine) UpdateReport(ctx context.Context, requesterID, id string, patch ReportPatch, expectedVersion int64) (*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	r, err := e.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.Check(user, access.CapWriteReports, r.Classification); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionUpdateReport, "report", id, d)
	}
	if r.SubmittedBy != user.ID {
		return nil, e.deny(ctx, user.ID, audit.ActionUpdateReport, "report", id,
			access.Decision{Reason: access.InsufficientRole})
	}
	if r.Status.IsTerminal() {
		return nil, illegalTransition("report", string(r.Status), "edit_content")
	}

	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Content != nil {
		r.Content = *patch.Content
	}
	if patch.Type != nil {
		// Retyping is still bound by the editor's collection discipline.
		if d := e.gate.CanSubmitType(user, *patch.Type, r.Classification); !d.Granted {
			return nil, e.deny(ctx, user.ID, audit.ActionUpdateReport, "report", id, d)
		}
		r.Type = *patch.Type
	}
	if patch.Classification != nil {
		// Raising classification above the editor's clearance is still
		// a clearance violation.
		if d := e.gate.Check(user, access.CapWriteReports, *patch.Classification); !d.Granted {
			return nil, e.deny(ctx, user.ID, audit.ActionUpdateReport, "report", id, d)
		}
		r.Classification = *patch.Classification
	}
	if patch.ClearLocation {
		r.Location = nil
	} else if patch.Location != nil {
		p := *patch.Location
		r.Location = &p
	}
	if patch.EventTime != nil {
		r.EventTime = *patch.EventTime
	}
	if patch.Confidence != nil {
		r.Confidence = *patch.Confidence
	}
	if patch.Metadata != nil {
		r.Metadata = intel.CloneMetadata(patch.Metadata)
	}
	if err := intel.ValidateDraftReport(r); err != nil {
		return nil, err
	}

	r.Version = expectedVersion
	if err := e.reports.Save(ctx, r); err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, audit.ActionUpdateReport, "report", id, audit.OutcomeGranted, "")
	return r, nil
}

// ReviewReport moves a report through the review state machine, stamping
// reviewer identity and time. Reviewer capability and clearance over the
// report's classification are both required.
func (e *Engine) ReviewReport(ctx context.Context, requesterID, id string, verdict ReviewVerdict, comments string, expectedVersion int64) (*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	target, err := verdict.Status()
	if err != nil {
		return nil, err
	}
	r, err := e.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.Check(user, access.CapReviewReports, r.Classification); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionReviewReport, "report", id, d)
	}
	if !reportTransitionAllowed(r.Status, target) {
		return nil, illegalTransition("report", string(r.Status), string(target))
	}

	now := e.now()
	r.Status = target
	r.ReviewedBy = user.ID
	r.ReviewedAt = &now
	r.ReviewComments = comments

	r.Version = expectedVersion
	if err := e.reports.Save(ctx, r); err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, audit.ActionReviewReport, "report", id, audit.OutcomeGranted, string(verdict))
	e.logger.Infow("Report reviewed",
		"report_id", id,
		"verdict", verdict,
		"status", r.Status,
		"reviewed_by", user.ID,
	)
	return r, nil
}

// DeleteReport removes a report record. Permitted to the submitter and to
// reviewer-capable users. Events already fused from the report keep their
// provenance; only the report record goes.
func (e *Engine) DeleteReport(ctx context.Context, requesterID, id string, expectedVersion int64) error {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return err
	}
	r, err := e.reports.Get(ctx, id)
	if err != nil {
		return err
	}
	isSubmitter := r.SubmittedBy == user.ID
	isReviewer := e.gate.Check(user, access.CapReviewReports, r.Classification).Granted
	if !isSubmitter && !isReviewer {
		return e.deny(ctx, user.ID, audit.ActionDeleteReport, "report", id,
			access.Decision{Reason: access.InsufficientRole})
	}
	if isSubmitter && !isReviewer {
		// The submitter still needs clearance over their own record and
		// an active account.
		if d := e.gate.Check(user, access.CapWriteReports, r.Classification); !d.Granted {
			return e.deny(ctx, user.ID, audit.ActionDeleteReport, "report", id, d)
		}
	}
	if err := e.reports.Delete(ctx, id, expectedVersion); err != nil {
		return err
	}
	e.record(ctx, user.ID, audit.ActionDeleteReport, "report", id, audit.OutcomeGranted, "")
	return nil
}

// GetReport loads one report, applying read-visibility rules.
func (e *Engine) GetReport(ctx context.Context, requesterID, id string) (*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	r, err := e.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CanReadReport(user, r); !d.Granted {
		// A denied read surfaces as NotFound so existence above the
		// requester's clearance is not leaked.
		return nil, e.notFoundDenial(ctx, user, "report", id, d)
	}
	return r, nil
}

// ListReports returns the reports matching the filter that the requester
// may read.
func (e *Engine) ListReports(ctx context.Context, requesterID string, f store.ReportFilter) ([]*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, "list_reports", "report", "", d)
	}
	all, err := e.reports.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return e.gate.FilterReports(user, all), nil
}
