package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

// MemoryStore is an in-memory implementation of Reports, Events, Decisions,
// and GeoIndex with the same optimistic-version semantics as the SQLite
// stores. Intended for tests and for running the core without a database.
type MemoryStore struct {
	mu        sync.Mutex
	reports   map[string]*intel.Report
	events    map[string]*intel.Event
	decisions map[string]*intel.Decision
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:   make(map[string]*intel.Report),
		events:    make(map[string]*intel.Event),
		decisions: make(map[string]*intel.Decision),
	}
}

func cloneReport(r *intel.Report) *intel.Report {
	c := *r
	if r.Location != nil {
		p := *r.Location
		c.Location = &p
	}
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	c.Metadata = intel.CloneMetadata(r.Metadata)
	return &c
}

func cloneEvent(e *intel.Event) *intel.Event {
	c := *e
	if e.Location != nil {
		p := *e.Location
		c.Location = &p
	}
	if e.EndTime != nil {
		t := *e.EndTime
		c.EndTime = &t
	}
	if e.SourceReports != nil {
		c.SourceReports = append([]string(nil), e.SourceReports...)
	}
	if e.Fusion != nil {
		f := *e.Fusion
		f.ReportIDs = append([]string(nil), e.Fusion.ReportIDs...)
		c.Fusion = &f
	}
	return &c
}

func cloneDecision(d *intel.Decision) *intel.Decision {
	c := *d
	return &c
}

// Create inserts a new report at version 1.
func (m *MemoryStore) Create(ctx context.Context, r *intel.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Version = 1
	m.reports[r.ID] = cloneReport(r)
	return nil
}

// Get loads a report by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*intel.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	return cloneReport(r), nil
}

// Save commits r under the optimistic version check.
func (m *MemoryStore) Save(ctx context.Context, r *intel.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.reports[r.ID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "report %s", r.ID)
	}
	if cur.Version != r.Version {
		return errors.Wrapf(errors.ErrVersionConflict, "report %s at version %d", r.ID, r.Version)
	}
	r.Version++
	m.reports[r.ID] = cloneReport(r)
	return nil
}

// Delete removes a report under the optimistic version check.
func (m *MemoryStore) Delete(ctx context.Context, id string, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.reports[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "report %s", id)
	}
	if cur.Version != expectedVersion {
		return errors.Wrapf(errors.ErrVersionConflict, "report %s at version %d", id, expectedVersion)
	}
	delete(m.reports, id)
	return nil
}

// List returns reports matching the filter, ordered by ID for determinism.
func (m *MemoryStore) List(ctx context.Context, f ReportFilter) ([]*intel.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Report
	for _, r := range m.reports {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.SubmittedBy != "" && r.SubmittedBy != f.SubmittedBy {
			continue
		}
		if !f.Since.IsZero() && r.SubmittedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && r.SubmittedAt.After(f.Until) {
			continue
		}
		out = append(out, cloneReport(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateEvent inserts a new event at version 1.
func (m *MemoryStore) CreateEvent(ctx context.Context, e *intel.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Version = 1
	m.events[e.ID] = cloneEvent(e)
	return nil
}

// GetEvent loads an event by ID.
func (m *MemoryStore) GetEvent(ctx context.Context, id string) (*intel.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "event %s", id)
	}
	return cloneEvent(e), nil
}

// SaveEvent commits e under the optimistic version check.
func (m *MemoryStore) SaveEvent(ctx context.Context, e *intel.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[e.ID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "event %s", e.ID)
	}
	if cur.Version != e.Version {
		return errors.Wrapf(errors.ErrVersionConflict, "event %s at version %d", e.ID, e.Version)
	}
	e.Version++
	m.events[e.ID] = cloneEvent(e)
	return nil
}

// ListEvents returns events matching the filter, ordered by ID.
func (m *MemoryStore) ListEvents(ctx context.Context, f EventFilter) ([]*intel.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Event
	for _, e := range m.events {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.ActiveOnly && !e.Status.IsActive() {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateDecision inserts a new decision at version 1.
func (m *MemoryStore) CreateDecision(ctx context.Context, d *intel.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Version = 1
	m.decisions[d.ID] = cloneDecision(d)
	return nil
}

// GetDecision loads a decision by ID.
func (m *MemoryStore) GetDecision(ctx context.Context, id string) (*intel.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decisions[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "decision %s", id)
	}
	return cloneDecision(d), nil
}

// SaveDecision commits d under the optimistic version check.
func (m *MemoryStore) SaveDecision(ctx context.Context, d *intel.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.decisions[d.ID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "decision %s", d.ID)
	}
	if cur.Version != d.Version {
		return errors.Wrapf(errors.ErrVersionConflict, "decision %s at version %d", d.ID, d.Version)
	}
	d.Version++
	m.decisions[d.ID] = cloneDecision(d)
	return nil
}

// ListDecisions returns decisions matching the filter, ordered by ID.
func (m *MemoryStore) ListDecisions(ctx context.Context, f DecisionFilter) ([]*intel.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Decision
	for _, d := range m.decisions {
		if f.AuthorID != "" && d.AuthorID != f.AuthorID {
			continue
		}
		if f.EventID != "" && d.EventID != f.EventID {
			continue
		}
		if f.ReportID != "" && d.ReportID != f.ReportID {
			continue
		}
		out = append(out, cloneDecision(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reports returns the store's Reports view. MemoryStore itself satisfies
// the interface; the accessor exists for symmetry with Events/Decisions.
func (m *MemoryStore) Reports() Reports { return m }

// Events returns the store's Events view.
func (m *MemoryStore) Events() Events { return memoryEvents{m} }

// Decisions returns the store's Decisions view.
func (m *MemoryStore) Decisions() Decisions { return memoryDecisions{m} }

type memoryEvents struct{ m *MemoryStore }

func (v memoryEvents) Create(ctx context.Context, e *intel.Event) error {
	return v.m.CreateEvent(ctx, e)
}
func (v memoryEvents) Get(ctx context.Context, id string) (*intel.Event, error) {
	return v.m.GetEvent(ctx, id)
}
func (v memoryEvents) Save(ctx context.Context, e *intel.Event) error {
	return v.m.SaveEvent(ctx, e)
}
func (v memoryEvents) List(ctx context.Context, f EventFilter) ([]*intel.Event, error) {
	return v.m.ListEvents(ctx, f)
}

type memoryDecisions struct{ m *MemoryStore }

func (v memoryDecisions) Create(ctx context.Context, d *intel.Decision) error {
	return v.m.CreateDecision(ctx, d)
}
func (v memoryDecisions) Get(ctx context.Context, id string) (*intel.Decision, error) {
	return v.m.GetDecision(ctx, id)
}
func (v memoryDecisions) Save(ctx context.Context, d *intel.Decision) error {
	return v.m.SaveDecision(ctx, d)
}
func (v memoryDecisions) List(ctx context.Context, f DecisionFilter) ([]*intel.Decision, error) {
	return v.m.ListDecisions(ctx, f)
}

// ReportsWithinRadius returns located reports within radiusMeters of center.
func (m *MemoryStore) ReportsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Report
	for _, r := range m.reports {
		if r.Location != nil && geo.WithinRadius(center, *r.Location, radiusMeters) {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EventsWithinRadius returns located events within radiusMeters of center.
func (m *MemoryStore) EventsWithinRadius(ctx context.Context, center geo.Point, radiusMeters float64) ([]*intel.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Event
	for _, e := range m.events {
		if e.Location != nil && geo.WithinRadius(center, *e.Location, radiusMeters) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ReportsWithinBounds returns located reports inside the box.
func (m *MemoryStore) ReportsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Report
	for _, r := range m.reports {
		if r.Location != nil && b.Contains(*r.Location) {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EventsWithinBounds returns located events inside the box.
func (m *MemoryStore) EventsWithinBounds(ctx context.Context, b geo.Bounds) ([]*intel.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*intel.Event
	for _, e := range m.events {
		if e.Location != nil && b.Contains(*e.Location) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
