package workflow

import (
	"context"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

// ReportsWithinRadius returns all readable reports within radiusMeters of
// center, boundary inclusive. Access filtering happens here, not in the
// caller, so a denial of read is never bypassed.
func (e *Engine) ReportsWithinRadius(ctx context.Context, requesterID string, center geo.Point, radiusMeters float64) ([]*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionRadiusQuery, "report", "", d)
	}
	found, err := e.geo.ReportsWithinRadius(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, audit.ActionRadiusQuery, "report", "", audit.OutcomeGranted, "")
	return e.gate.FilterReports(user, found), nil
}

// EventsWithinRadius returns all readable events within radiusMeters of
// center, boundary inclusive.
func (e *Engine) EventsWithinRadius(ctx context.Context, requesterID string, center geo.Point, radiusMeters float64) ([]*intel.Event, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionRadiusQuery, "event", "", d)
	}
	found, err := e.geo.EventsWithinRadius(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}
	e.record(ctx, user.ID, audit.ActionRadiusQuery, "event", "", audit.OutcomeGranted, "")
	return e.gate.FilterEvents(user, found), nil
}

// ReportsWithinBounds returns all readable reports inside a map viewport.
func (e *Engine) ReportsWithinBounds(ctx context.Context, requesterID string, b geo.Bounds) ([]*intel.Report, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionBoundsQuery, "report", "", d)
	}
	found, err := e.geo.ReportsWithinBounds(ctx, b)
	if err != nil {
		return nil, err
	}
	return e.gate.FilterReports(user, found), nil
}

// EventsWithinBounds returns all readable events inside a map viewport.
func (e *Engine) EventsWithinBounds(ctx context.Context, requesterID string, b geo.Bounds) ([]*intel.Event, error) {
	user, err := e.requester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if d := e.gate.CheckCapability(user, access.CapReadReports); !d.Granted {
		return nil, e.deny(ctx, user.ID, audit.ActionBoundsQuery, "event", "", d)
	}
	found, err := e.geo.EventsWithinBounds(ctx, b)
	if err != nil {
		return nil, err
	}
	return e.gate.FilterEvents(user, found), nil
}
