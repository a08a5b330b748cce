package fusion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ravenfield/copx/access"
	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/identity"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

// Service runs fusion over the approved report picture and persists the
// synthesized events. Fusion operates server-side over all approved
// reports; viewer clearance is applied later, at read time.
type Service struct {
	reports store.Reports
	events  store.Events
	users   identity.Directory
	gate    *access.Gate
	trail   audit.Recorder
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu  sync.RWMutex
	cfg Config
}

// NewService wires a fusion service. trail and logger may be nil.
func NewService(reports store.Reports, events store.Events, users identity.Directory, gate *access.Gate, cfg Config, trail audit.Recorder, logger *zap.SugaredLogger) *Service {
	if gate == nil {
		gate = access.NewGate()
	}
	if trail == nil {
		trail = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		reports: reports,
		events:  events,
		users:   users,
		gate:    gate,
		trail:   trail,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		cfg:     cfg.withDefaults(),
	}
}

// Config returns the current tunables.
func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig swaps the tunables. Called by the configuration watcher when
// the fusion section changes on disk.
func (s *Service) SetConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.withDefaults()
	s.mu.Unlock()
	s.logger.Infow("Fusion configuration updated",
		"radius_meters", cfg.RadiusMeters,
		"window", cfg.Window,
		"compatibility", cfg.Compatibility,
	)
}

// Run fuses all approved reports on behalf of requesterID, persisting any
// events not already present. Requires the fusion-analysis capability.
// Event identifiers are derived from cluster membership, so reruns over an
// unchanged picture create nothing new.
func (s *Service) Run(ctx context.Context, requesterID string) ([]*intel.Event, error) {
	user, err := s.users.Lookup(ctx, requesterID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &access.DeniedError{Reason: access.UnknownUser}
		}
		return nil, err
	}
	if d := s.gate.CheckCapability(user, access.CapFusionAnalysis); !d.Granted {
		s.trail.Record(ctx, audit.Entry{
			Time: s.now(), ActorID: user.ID, Action: audit.ActionRunFusion,
			Outcome: audit.OutcomeDenied, Reason: string(d.Reason),
		})
		return nil, d.Err()
	}
	return s.run(ctx, user.ID)
}

// RunSystem fuses without a requester, for the periodic scheduler. The
// scheduler is a trusted internal trigger, not a user-facing operation.
func (s *Service) RunSystem(ctx context.Context) ([]*intel.Event, error) {
	return s.run(ctx, "system")
}

func (s *Service) run(ctx context.Context, actorID string) ([]*intel.Event, error) {
	approved, err := s.reports.List(ctx, store.ReportFilter{Status: intel.ReportApproved})
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	candidates := Fuse(approved, cfg, s.now())

	var created []*intel.Event
	for _, ev := range candidates {
		if _, err := s.events.Get(ctx, ev.ID); err == nil {
			continue
		} else if !errors.IsNotFound(err) {
			return nil, err
		}
		ev.CreatedBy = actorID
		if err := s.events.Create(ctx, ev); err != nil {
			return nil, err
		}
		created = append(created, ev)
		s.logger.Infow("Event fused",
			"event_id", ev.ID,
			"source_reports", len(ev.SourceReports),
			"classification", ev.Classification.String(),
			"confidence", ev.Confidence,
		)
	}

	s.trail.Record(ctx, audit.Entry{
		Time: s.now(), ActorID: actorID, Action: audit.ActionRunFusion,
		Outcome: audit.OutcomeGranted,
	})
	s.logger.Infow("Fusion run complete",
		"approved_reports", len(approved),
		"clusters", len(candidates),
		"events_created", len(created),
	)
	return created, nil
}
