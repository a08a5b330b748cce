package store

import (
	"context"

	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

// SQLGeoIndex answers radius and bounding queries over the reports and
// events tables. SQLite has no native geodesic operator, so queries run in
// two stages: a bounding-box prefilter in SQL over the indexed lat/lon
// columns, then an exact great-circle check in Go. The prefilter only ever
// over-covers, so the second stage is authoritative.
type SQLGeoIndex struct {
	reports *ReportStore
	events  *EventStore
}

// NewSQLGeoIndex creates a geo index over the same database as the stores.
func NewSQLGeoIndex(reports *ReportStore, events *EventStore) *SQLGeoIndex {
	return &SQLGeoIndex{reports: reports, events: events}
}

// ReportsWithinRadius returns located reports within radiusMeters of
// center, boundary inclusive, ordered by ID.
func (g *SQLGeoIndex) ReportsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Report, error) {
	box := geo.BoundingBox(center, radiusMeters)
	candidates, err := g.ReportsWithinBounds(ctx, box)
	if err != nil {
		return nil, err
	}
	out := make([]*intel.Report, 0, len(candidates))
	for _, r := range candidates {
		if r.Location != nil && geo.WithinRadius(center, *r.Location, radiusMeters) {
			out = append(out, r)
		}
	}
	return out, nil
}

// EventsWithinRadius returns located events within radiusMeters of center,
// boundary inclusive, ordered by ID.
func (g *SQLGeoIndex) EventsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Event, error) {
	box := geo.BoundingBox(center, radiusMeters)
	candidates, err := g.EventsWithinBounds(ctx, box)
	if err != nil {
		return nil, err
	}
	out := make([]*intel.Event, 0, len(candidates))
	for _, e := range candidates {
		if e.Location != nil && geo.WithinRadius(center, *e.Location, radiusMeters) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ReportsWithinBounds returns located reports inside the box, ordered by ID.
func (g *SQLGeoIndex) ReportsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports
		 WHERE lat IS NOT NULL AND lat BETWEEN ? AND ? AND ` + lonClause(b) + `
		 ORDER BY id`
	rows, err := g.reports.db.QueryContext(ctx, query, boundsArgs(b)...)
	if err != nil {
		return nil, storeErr(err, "query reports within bounds")
	}
	defer rows.Close()

	var out []*intel.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, storeErr(err, "scan report")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EventsWithinBounds returns located events inside the box, ordered by ID.
func (g *SQLGeoIndex) EventsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		 WHERE lat IS NOT NULL AND lat BETWEEN ? AND ? AND ` + lonClause(b) + `
		 ORDER BY id`
	rows, err := g.events.db.QueryContext(ctx, query, boundsArgs(b)...)
	if err != nil {
		return nil, storeErr(err, "query events within bounds")
	}
	defer rows.Close()

	var out []*intel.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr(err, "scan event")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range out {
		if err := g.events.loadSources(ctx, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// lonClause handles boxes that cross the antimeridian, where min > max and
// the longitude condition flips from AND to OR.
func lonClause(b geo.Bounds) string {
	if b.MinLon <= b.MaxLon {
		return "lon BETWEEN ? AND ?"
	}
	return "(lon >= ? OR lon <= ?)"
}

func boundsArgs(b geo.Bounds) []interface{} {
	return []interface{}{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon}
}
