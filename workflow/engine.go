// Package workflow implements the entity lifecycles: report submission and
// review, event status management, and command decisions. Every operation
// resolves the requester through the identity directory, runs the access
// gate, enforces the legal transition table, and commits through the
// optimistic-concurrency stores. The engine holds no state of its own and
// no locks across store calls.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

// Deps are the engine's collaborators. Gate, Reports, Events, Decisions,
// Geo, and Users are required; the rest default to no-ops.
type Deps struct {
	Gate      *access.Gate
	Reports   store.Reports
	Events    store.Events
	Decisions store.Decisions
	Geo       store.GeoIndex
	Users     identity.Directory
	Trail     audit.Recorder
	Logger    *zap.SugaredLogger

	// Now and NewID exist so tests can pin time and identifiers.
	Now   func() time.Time
	NewID func() string
}

// Engine drives all entity state changes.
type Engine struct {
	gate      *access.Gate
	reports   store.Reports
	events    store.Events
	decisions store.Decisions
	geo       store.GeoIndex
	users     identity.Directory
	trail     audit.Recorder
	logger    *zap.SugaredLogger
	now       func() time.Time
	newID     func() string
}

// NewEngine wires an engine from its collaborators.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		gate:      d.Gate,
		reports:   d.Reports,
		events:    d.Events,
		decisions: d.Decisions,
		geo:       d.Geo,
		users:     d.Users,
		trail:     d.Trail,
		logger:    d.Logger,
		now:       d.Now,
		newID:     d.NewID,
	}
	if e.gate == nil {
		e.gate = access.NewGate()
	}
	if e.trail == nil {
		e.trail = audit.Nop{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop().Sugar()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// requester resolves an identifier to an active-or-not user. An unknown
// identifier is an access denial, not a NotFound: the caller learns nothing
// about which identifiers exist.
func (e *Engine) requester(ctx context.Context, identifier string) (*intel.User, error) {
	u, err := e.users.Lookup(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &access.DeniedError{Reason: access.UnknownUser}
		}
		return nil, err
	}
	return u, nil
}

func (e *Engine) record(ctx context.Context, actorID, action, kind, id, outcome, reason string) {
	e.trail.Record(ctx, audit.Entry{
		Time:       e.now(),
		ActorID:    actorID,
		Action:     action,
		EntityKind: kind,
		EntityID:   id,
		Outcome:    outcome,
		Reason:     reason,
	})
}

// notFoundDenial audits a read denial but surfaces it as NotFound, so the
// requester cannot distinguish a record above their clearance from one that
// does not exist.
func (e *Engine) notFoundDenial(ctx context.Context, user *intel.User, kind, id string, d access.Decision) error {
	e.record(ctx, user.ID, "read_"+kind, kind, id, audit.OutcomeDenied, string(d.Reason))
	return errors.Wrapf(errors.ErrNotFound, "%s %s", kind, id)
}

// deny audits and returns the denial from a failed gate decision.
func (e *Engine) deny(ctx context.Context, actorID, action, kind, id string, d access.Decision) error {
	e.record(ctx, actorID, action, kind, id, audit.OutcomeDenied, string(d.Reason))
	e.logger.Infow("Access denied",
		"actor_id", actorID,
		"action", action,
		"reason", d.Reason,
	)
	return d.Err()
}
