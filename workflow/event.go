package workflow

import (
	"context"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

// TransitionEvent moves an event through the review state machine. Only
// reviewer-capable users with clearance over the event's classification may
// transition; ARCHIVED is reachable from any active state and is one-way.
func (e *Engine) TransitionEvent(ctx context.Context, requesterID, id string, target intel.EventStatus, expectedVersion int64) (*intel.Event, error) {
	return e.transitionEvent(ctx, requesterID, id, target, expectedVersion, audit.ActionTransitionEvent)
}

// ArchiveEvent is the administrative one-way removal of an event from the
// operating picture. It is the ARCHIVED transition under its own audit
// action name.
func (e *Engine) ArchiveEvent(ctx context.Context, requesterID, id string, expectedVersion int64) (*intel.Event, error) {
	return e.transitionEvent(ctx, requesterID, id, intel.EventArchived, expectedVersion, audit.ActionArchiveEvent)
}

// transitionEvent performs the shared transition mechanics, recording
// exactly one audit entry under the caller's action name.
func (e *Engine) transitionEvent(ctx context.Context, requesterID, id string, target intel.EventStatus, expectedVersion int64, action string) (*intel.Event, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	ev, err := e.events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.Check(user, access.CapApproveEvents, ev.Classification); !d.Granted {
		return nil, e.deny(ctx, user.ID, action, "event", id, d)
	}
	if !eventTransitionAllowed(ev.Status, target) {
		return nil, illegalTransition("event", string(ev.Status), string(target))
	}

	ev.Status = target
	ev.Version = expectedVersion
	if err := e.events.Save(ctx, ev); err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, action, "event", id, audit.OutcomeGranted, string(target))
	e.logger.Infow("Event transitioned",
		"event_id", id,
		"status", target,
		"by", user.ID,
	)
	return ev, nil
}

// GetEvent loads one event, applying read-visibility rules.
func (e *Engine) GetEvent(ctx context.Context, requesterID, id string) (*intel.Event, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	ev, err := e.events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CanReadEvent(user, ev); !d.Granted {
		return nil, e.notFoundDenial(ctx, user, "event", id, d)
	}
	return ev, nil
}

// ListEvents returns the events matching the filter that the requester may
// read.
func (e *Engine) ListEvents(ctx context.Context, requesterID string, f store.EventFilter) ([]*intel.Event, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, "list_events", "event", "", d)
	}
	all, err := e.events.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return e.gate.FilterEvents(user, all), nil
}
