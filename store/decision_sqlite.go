package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

const decisionColumns = `id, author_id, type, approval_status, event_id, report_id,
	priority, reasoning, notes, requires_action, action_taken, decided_at, version`

// DecisionStore persists command decisions in SQLite.
type DecisionStore struct {
	db *sql.DB
}

// NewDecisionStore creates a decision store over an open database.
func NewDecisionStore(db *sql.DB) *DecisionStore {
	return &DecisionStore{db: db}
}

// Create inserts a new decision at version 1.
func (s *DecisionStore) Create(ctx context.Context, d *intel.Decision) error {
	d.Version = 1
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (`+decisionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.AuthorID, string(d.Type), string(d.ApprovalStatus),
		nullString(d.EventID), nullString(d.ReportID),
		d.Priority, d.Reasoning, d.Notes, d.RequiresAction, d.ActionTaken, d.DecidedAt, d.Version,
	)
	if err != nil {
		return storeErr(err, "insert decision")
	}
	return nil
}

// Get loads a decision by ID.
func (s *DecisionStore) Get(ctx context.Context, id string) (*intel.Decision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "decision %s", id)
	}
	if err != nil {
		return nil, storeErr(err, "get decision")
	}
	return d, nil
}

// Save commits the decision's mutable fields (approval status, requires
// action, action taken) under the optimistic version check.
func (s *DecisionStore) Save(ctx context.Context, d *intel.Decision) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE decisions SET approval_status = ?, requires_action = ?, action_taken = ?,
		 version = version + 1
		 WHERE id = ? AND version = ?`,
		string(d.ApprovalStatus), d.RequiresAction, d.ActionTaken,
		d.ID, d.Version,
	)
	if err != nil {
		return storeErr(err, "update decision")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err, "rows affected")
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM decisions WHERE id = ?)`, d.ID).Scan(&exists); err != nil {
			return storeErr(err, "check decision existence")
		}
		if !exists {
			return errors.Wrapf(errors.ErrNotFound, "decision %s", d.ID)
		}
		return errors.Wrapf(errors.ErrVersionConflict, "decision %s at version %d", d.ID, d.Version)
	}
	d.Version++
	return nil
}

// List returns decisions matching the filter, newest first.
func (s *DecisionStore) List(ctx context.Context, f DecisionFilter) ([]*intel.Decision, error) {
	var where []string
	var args []interface{}
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.EventID != "" {
		where = append(where, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.ReportID != "" {
		where = append(where, "report_id = ?")
		args = append(args, f.ReportID)
	}

	query := `SELECT ` + decisionColumns + ` FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY decided_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "list decisions")
	}
	defer rows.Close()

	var out []*intel.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, storeErr(err, "scan decision")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "iterate decisions")
	}
	return out, nil
}

func scanDecision(row rowScanner) (*intel.Decision, error) {
	var (
		d                 intel.Decision
		typ, status       string
		eventID, reportID sql.NullString
	)
	err := row.Scan(&d.ID, &d.AuthorID, &typ, &status, &eventID, &reportID,
		&d.Priority, &d.Reasoning, &d.Notes, &d.RequiresAction, &d.ActionTaken, &d.DecidedAt, &d.Version)
	if err != nil {
		return nil, err
	}
	d.Type = intel.DecisionType(typ)
	d.ApprovalStatus = intel.ApprovalStatus(status)
	if eventID.Valid {
		d.EventID = eventID.String
	}
	if reportID.Valid {
		d.ReportID = reportID.String
	}
	return &d, nil
}
