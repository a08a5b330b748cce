// Package store persists COPX entities in SQLite and implements the
// geospatial index used by fusion and map retrieval.
//
// Every mutable entity carries a version column. Create sets it to 1; Save
// commits only if the version in the database still matches the version the
// caller read, bumping it by one, otherwise the caller gets
// errors.ErrVersionConflict and must re-read. No locks are held across
// calls; linearizability of workflow transitions rests entirely on this
// compare-and-swap.
package store

import (
	"context"
	"time"

	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

// ReportFilter narrows a report listing. Zero fields are ignored.
type ReportFilter struct {
	Status      intel.ReportStatus
	Type        intel.IntelType
	SubmittedBy string
	Since       time.Time
	Until       time.Time
}

// EventFilter narrows an event listing. Zero fields are ignored.
type EventFilter struct {
	Status     intel.EventStatus
	ActiveOnly bool
}

// DecisionFilter narrows a decision listing. Zero fields are ignored.
type DecisionFilter struct {
	AuthorID string
	EventID  string
	ReportID string
}

// Reports is the report persistence contract the core calls through.
type Reports interface {
	Create(ctx context.Context, r *intel.Report) error
	Get(ctx context.Context, id string) (*intel.Report, error)
	Save(ctx context.Context, r *intel.Report) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
	List(ctx context.Context, f ReportFilter) ([]*intel.Report, error)
}

// Events is the event persistence contract.
type Events interface {
	Create(ctx context.Context, e *intel.Event) error
	Get(ctx context.Context, id string) (*intel.Event, error)
	Save(ctx context.Context, e *intel.Event) error
	List(ctx context.Context, f EventFilter) ([]*intel.Event, error)
}

// Decisions is the decision persistence contract.
type Decisions interface {
	Create(ctx context.Context, d *intel.Decision) error
	Get(ctx context.Context, id string) (*intel.Decision, error)
	Save(ctx context.Context, d *intel.Decision) error
	List(ctx context.Context, f DecisionFilter) ([]*intel.Decision, error)
}

// GeoIndex answers point/radius and bounding queries over located entities.
// Radius membership is inclusive: a point exactly at the boundary matches.
type GeoIndex interface {
	ReportsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Report, error)
	EventsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Event, error)
	ReportsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Report, error)
	EventsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Event, error)
}

var (
	_ Reports   = (*ReportStore)(nil)
	_ Events    = (*EventStore)(nil)
	_ Decisions = (*DecisionStore)(nil)
	_ GeoIndex  = (*SQLGeoIndex)(nil)
	_ Reports   = (*MemoryStore)(nil)
	_ GeoIndex  = (*MemoryStore)(nil)
)
