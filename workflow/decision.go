package workflow

import (
	"context"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

// DecisionDraft is the content recorded at decision creation. Everything
// except ApprovalStatus and ActionTaken is immutable afterwards.
type DecisionDraft struct {
	Type           intel.DecisionType
	EventID        string
	ReportID       string
	Priority       int
	Reasoning      string
	Notes          string
	RequiresAction bool
}

// RecordDecision creates a command decision in PENDING approval status.
// Requires the decision-making capability. The referenced event or report
// must exist.
func (e *Engine) RecordDecision(ctx context.Context, requesterID string, draft DecisionDraft) (*intel.Decision, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapMakeDecisions); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionRecordDecision, "decision", "", d)
	}

	dec := &intel.Decision{
		ID:             e.newID(),
		AuthorID:       user.ID,
		Type:           draft.Type,
		ApprovalStatus: intel.ApprovalPending,
		EventID:        draft.EventID,
		ReportID:       draft.ReportID,
		Priority:       draft.Priority,
		Reasoning:      draft.Reasoning,
		Notes:          draft.Notes,
		RequiresAction: draft.RequiresAction,
		DecidedAt:      e.now(),
	}
	if err := intel.ValidateDraftDecision(dec); err != nil {
		return nil, err
	}
	if dec.EventID != "" {
		if _, err := e.events.Get(ctx, dec.EventID); err != nil {
			return nil, err
		}
	}
	if dec.ReportID != "" {
		if _, err := e.reports.Get(ctx, dec.ReportID); err != nil {
			return nil, err
		}
	}
	if err := e.decisions.Create(ctx, dec); err != nil {
		return nil, err
	}

	e.record(ctx, user.ID, audit.ActionRecordDecision, "decision", dec.ID, audit.OutcomeGranted, string(dec.Type))
	e.logger.Infow("Decision recorded",
		"decision_id", dec.ID,
		"type", dec.Type,
		"author", user.ID,
	)
	return dec, nil
}

// UpdateDecisionStatus changes a decision's approval status and action
// record. Only the author may update, and only while the current status is
// non-final. APPROVED and REJECTED are irreversible.
func (e *Engine) UpdateDecisionStatus(ctx context.Context, requesterID, id string, status intel.ApprovalStatus, actionTaken string, expectedVersion int64) (*intel.Decision, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	dec, err := e.decisions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapMakeDecisions); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionUpdateDecision, "decision", id, d)
	}
	if dec.AuthorID != user.ID {
		return nil, e.deny(ctx, user.ID, audit.ActionUpdateDecision, "decision", id,
			access.Decision{Reason: access.InsufficientRole})
	}
	if dec.ApprovalStatus.IsFinal() {
		return nil, illegalTransition("decision", string(dec.ApprovalStatus), string(status))
	}
	if _, err := intel.ParseApprovalStatus(string(status)); err != nil {
		return nil, err
	}

	dec.ApprovalStatus = status
	dec.RequiresAction = status.RequiresAction()
	if actionTaken != "" {
		dec.ActionTaken = actionTaken
	}

	dec.Version = expectedVersion
	if err := e.decisions.Save(ctx, dec); err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, audit.ActionUpdateDecision, "decision", id, audit.OutcomeGranted, string(status))
	return dec, nil
}

// GetDecision loads one decision. Reading decisions requires the
// decision-making capability; decisions are command material, not general
// intelligence.
func (e *Engine) GetDecision(ctx context.Context, requesterID, id string) (*intel.Decision, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapMakeDecisions); !d.Granted {
		return nil, e.deny(ctx, user.ID, "read_decision", "decision", id, d)
	}
	return e.decisions.Get(ctx, id)
}

// ListDecisions returns decisions matching the filter.
func (e *Engine) ListDecisions(ctx context.Context, requesterID string, f store.DecisionFilter) ([]*intel.Decision, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapMakeDecisions); !d.Granted {
		return nil, e.deny(ctx, user.ID, "list_decisions", "decision", "", d)
	}
	return e.decisions.List(ctx, f)
}
