package store

import (
	"context"
	"database/sql"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

const eventColumns = `id, type, title, description, start_time, end_time, lat, lon,
	confidence, classification, status, fusion, created_by, created_at, version`

// EventStore persists fused and manually created events in SQLite, together
// with the event-to-source-report join rows.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates an event store over an open database.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Create inserts a new event at version 1 along with its source-report
// links, atomically.
func (s *EventStore) Create(ctx context.Context, e *intel.Event) error {
	lat, lon := pointColumns(e.Location)
	fusion, err := marshalJSON(e.Fusion)
	if err != nil {
		return err
	}
	e.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err, "begin event insert")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.Title, e.Description, e.StartTime, nullTime(e.EndTime), lat, lon,
		e.Confidence, int(e.Classification), string(e.Status), fusion, e.CreatedBy, e.CreatedAt, e.Version,
	)
	if err != nil {
		tx.Rollback()
		return storeErr(err, "insert event")
	}
	for _, reportID := range e.SourceReports {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_reports (event_id, report_id) VALUES (?, ?)`,
			e.ID, reportID); err != nil {
			tx.Rollback()
			return storeErr(err, "insert event source link")
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err, "commit event insert")
	}
	return nil
}

// Get loads an event and its source-report IDs.
func (s *EventStore) Get(ctx context.Context, id string) (*intel.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "event %s", id)
	}
	if err != nil {
		return nil, storeErr(err, "get event")
	}
	if err := s.loadSources(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Save commits e if the stored version still matches, then bumps e.Version.
// Source-report links are immutable after fusion and are not rewritten.
func (s *EventStore) Save(ctx context.Context, e *intel.Event) error {
	lat, lon := pointColumns(e.Location)
	fusion, err := marshalJSON(e.Fusion)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET type = ?, title = ?, description = ?, start_time = ?,
		 end_time = ?, lat = ?, lon = ?, confidence = ?, classification = ?,
		 status = ?, fusion = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		e.Type, e.Title, e.Description, e.StartTime,
		nullTime(e.EndTime), lat, lon, e.Confidence, int(e.Classification),
		string(e.Status), fusion,
		e.ID, e.Version,
	)
	if err != nil {
		return storeErr(err, "update event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err, "rows affected")
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, e.ID).Scan(&exists); err != nil {
			return storeErr(err, "check event existence")
		}
		if !exists {
			return errors.Wrapf(errors.ErrNotFound, "event %s", e.ID)
		}
		return errors.Wrapf(errors.ErrVersionConflict, "event %s at version %d", e.ID, e.Version)
	}
	e.Version++
	return nil
}

// List returns events matching the filter, newest first.
func (s *EventStore) List(ctx context.Context, f EventFilter) ([]*intel.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	switch {
	case f.Status != "":
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	case f.ActiveOnly:
		query += ` WHERE status NOT IN (?, ?)`
		args = append(args, string(intel.EventRejected), string(intel.EventArchived))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "list events")
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
		return nil, storeErr(err, "iterate events")
	}
	for _, e := range out {
		if err := s.loadSources(ctx, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *EventStore) loadSources(ctx context.Context, e *intel.Event) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT report_id FROM event_reports WHERE event_id = ? ORDER BY report_id`, e.ID)
	if err != nil {
		return storeErr(err, "load event sources")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return storeErr(err, "scan event source")
		}
		e.SourceReports = append(e.SourceReports, id)
	}
	return rows.Err()
}

func scanEvent(row rowScanner) (*intel.Event, error) {
	var (
		e        intel.Event
		endTime  sql.NullTime
		lat, lon sql.NullFloat64
		level    int
		status   string
		fusion   sql.NullString
	)
	err := row.Scan(&e.ID, &e.Type, &e.Title, &e.Description, &e.StartTime, &endTime, &lat, &lon,
		&e.Confidence, &level, &status, &fusion, &e.CreatedBy, &e.CreatedAt, &e.Version)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		e.EndTime = &t
	}
	e.Location = pointFromColumns(lat, lon)
	e.Classification = classifyLevel(level)
	e.Status = intel.EventStatus(status)
	if err := unmarshalJSON(fusion, &e.Fusion); err != nil {
		return nil, err
	}
	return &e, nil
}
