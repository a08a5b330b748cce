package identity

import (
	"context"
	"database/sql"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

// Store is the SQLite-backed user directory.
type Store struct {
	db *sql.DB
}

// NewStore creates a directory over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ Manager = (*Store)(nil)

const userColumns = `id, username, role, clearance, active`

// Lookup resolves identifier as a user ID first, then as a username.
func (s *Store) Lookup(ctx context.Context, identifier string) (*intel.User, error) {
	u, err := s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, identifier)
	if err == nil {
		return u, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}
	return s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, identifier)
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, u *intel.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, role, clearance, active) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, string(u.Role), int(u.Clearance), u.Active,
	)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "insert user"), errors.ErrUnavailable)
	}
	return nil
}

// Update rewrites a user's role, clearance, and active flag.
func (s *Store) Update(ctx context.Context, u *intel.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, role = ?, clearance = ?, active = ? WHERE id = ?`,
		u.Username, string(u.Role), int(u.Clearance), u.Active, u.ID,
	)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "update user"), errors.ErrUnavailable)
	}
	return s.checkFound(res, u.ID)
}

// Deactivate marks a user inactive. Deactivated users fail every gate
// check; their submissions and decisions remain.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "deactivate user"), errors.ErrUnavailable)
	}
	return s.checkFound(res, id)
}

// List returns all users ordered by username.
func (s *Store) List(ctx context.Context) ([]*intel.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list users"), errors.ErrUnavailable)
	}
	defer rows.Close()

	var out []*intel.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "scan user"), errors.ErrUnavailable)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "iterate users"), errors.ErrUnavailable)
	}
	return out, nil
}

func (s *Store) scanOne(ctx context.Context, query, arg string) (*intel.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "user %s", arg)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "lookup user"), errors.ErrUnavailable)
	}
	return u, nil
}

func (s *Store) checkFound(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "rows affected"), errors.ErrUnavailable)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "user %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*intel.User, error) {
	var (
		u         intel.User
		role      string
		clearance int
	)
	if err := row.Scan(&u.ID, &u.Username, &role, &clearance, &u.Active); err != nil {
		return nil, err
	}
	u.Role = intel.Role(role)
	u.Clearance = classify.Level(clearance)
	if u.Clearance < classify.Unclassified || u.Clearance > classify.TopSecret {
		u.Clearance = classify.Unclassified
	}
	return &u, nil
}
