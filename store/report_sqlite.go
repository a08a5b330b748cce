package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

const reportColumns = `id, title, content, type, classification, lat, lon, event_time,
	confidence, submitted_by, submitted_at, status, reviewed_by, reviewed_at,
	review_comments, metadata, version`

// ReportStore persists intelligence reports in SQLite.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a report store over an open database.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create inserts a new report at version 1.
func (s *ReportStore) Create(ctx context.Context, r *intel.Report) error {
	lat, lon := pointColumns(r.Location)
	meta, err := marshalJSON(r.Metadata)
	if err != nil {
		return err
	}
	r.Version = 1
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Content, string(r.Type), int(r.Classification), lat, lon, r.EventTime,
		r.Confidence, r.SubmittedBy, r.SubmittedAt, string(r.Status), nullString(r.ReviewedBy), r.ReviewedAt,
		r.ReviewComments, meta, r.Version,
	)
	if err != nil {
		return storeErr(err, "insert report")
	}
	return nil
}

// Get loads a report by ID.
func (s *ReportStore) Get(ctx context.Context, id string) (*intel.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	if err != nil {
		return nil, storeErr(err, "get report")
	}
	return r, nil
}

// Save commits r if and only if the stored version still equals r.Version,
// then bumps r.Version. A vanished row surfaces as ErrNotFound, a version
// mismatch as ErrVersionConflict.
func (s *ReportStore) Save(ctx context.Context, r *intel.Report) error {
	lat, lon := pointColumns(r.Location)
	meta, err := marshalJSON(r.Metadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET title = ?, content = ?, type = ?, classification = ?,
		 lat = ?, lon = ?, event_time = ?, confidence = ?, status = ?,
		 reviewed_by = ?, reviewed_at = ?, review_comments = ?, metadata = ?,
		 version = version + 1
		 WHERE id = ? AND version = ?`,
		r.Title, r.Content, string(r.Type), int(r.Classification),
		lat, lon, r.EventTime, r.Confidence, string(r.Status),
		nullString(r.ReviewedBy), r.ReviewedAt, r.ReviewComments, meta,
		r.ID, r.Version,
	)
	if err != nil {
		return storeErr(err, "update report")
	}
	if err := s.checkWrite(ctx, res, r.ID, r.Version); err != nil {
		return err
	}
	r.Version++
	return nil
}

// Delete removes a report, honoring the optimistic version check. Events
// already fused from it keep their historical provenance; only the report
// record itself goes.
func (s *ReportStore) Delete(ctx context.Context, id string, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id = ? AND version = ?`, id, expectedVersion)
	if err != nil {
		return storeErr(err, "delete report")
	}
	return s.checkWrite(ctx, res, id, expectedVersion)
}

// checkWrite distinguishes a stale version from a vanished row after a
// guarded write reports zero affected rows.
func (s *ReportStore) checkWrite(ctx context.Context, res sql.Result, id string, expected int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err, "rows affected")
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reports WHERE id = ?)`, id).Scan(&exists); err != nil {
		return storeErr(err, "check report existence")
	}
	if !exists {
		return errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	return errors.Wrapf(errors.ErrVersionConflict, "report %s at version %d", id, expected)
}

// List returns reports matching the filter, newest submissions first.
func (s *ReportStore) List(ctx context.Context, f ReportFilter) ([]*intel.Report, error) {
	var where []string
	var args []interface{}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.SubmittedBy != "" {
		where = append(where, "submitted_by = ?")
		args = append(args, f.SubmittedBy)
	}
	if !f.Since.IsZero() {
		where = append(where, "submitted_at >= ?")
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		where = append(where, "submitted_at <= ?")
		args = append(args, f.Until)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "list reports")
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
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "iterate reports")
	}
	return out, nil
}

func scanReport(row rowScanner) (*intel.Report, error) {
	var (
		r          intel.Report
		typ        string
		level      int
		lat, lon   sql.NullFloat64
		status     string
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
		meta       sql.NullString
	)
	err := row.Scan(&r.ID, &r.Title, &r.Content, &typ, &level, &lat, &lon, &r.EventTime,
		&r.Confidence, &r.SubmittedBy, &r.SubmittedAt, &status, &reviewedBy, &reviewedAt,
		&r.ReviewComments, &meta, &r.Version)
	if err != nil {
		return nil, err
	}
	r.Type = intel.IntelType(typ)
	r.Classification = classifyLevel(level)
	r.Location = pointFromColumns(lat, lon)
	r.Status = intel.ReportStatus(status)
	if reviewedBy.Valid {
		r.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	if err := unmarshalJSON(meta, &r.Metadata); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
