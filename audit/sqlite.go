package audit

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Trail writes audit entries to the audit_log table.
type Trail struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewTrail creates a SQLite-backed audit trail. logger may be nil.
func NewTrail(db *sql.DB, logger *zap.SugaredLogger) *Trail {
	return &Trail{db: db, logger: logger}
}

// Record appends an entry. Write failures are logged and dropped so the
// audited operation itself is never failed by its own trail.
func (t *Trail) Record(ctx context.Context, e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO audit_log (ts, actor_id, action, entity_kind, entity_id, outcome, reason, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.ActorID, e.Action, e.EntityKind, e.EntityID, e.Outcome, e.Reason, e.Detail,
	)
	if err != nil && t.logger != nil {
		t.logger.Errorw("Failed to write audit entry",
			"action", e.Action,
			"actor_id", e.ActorID,
			"error", err,
		)
	}
}

// Recent returns up to limit entries, newest first. Used by the audit-log
// read endpoint, which is gated on the view-audit-logs capability.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT ts, actor_id, action, entity_kind, entity_id, outcome, reason, detail
		 FROM audit_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Time, &e.ActorID, &e.Action, &e.EntityKind, &e.EntityID,
			&e.Outcome, &e.Reason, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
