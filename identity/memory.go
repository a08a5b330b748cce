package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/intel"
)

// MemoryDirectory is a map-backed Manager for tests and tools.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*intel.User
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]*intel.User)}
}

var _ Manager = (*MemoryDirectory)(nil)

// Add inserts or replaces a user. Convenience for test setup.
func (m *MemoryDirectory) Add(u *intel.User) *MemoryDirectory {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *u
	m.users[u.ID] = &c
	return m
}

func (m *MemoryDirectory) Lookup(ctx context.Context, identifier string) (*intel.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[identifier]; ok {
		c := *u
		return &c, nil
	}
	for _, u := range m.users {
		if u.Username == identifier {
			c := *u
			return &c, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "user %s", identifier)
}

func (m *MemoryDirectory) Create(ctx context.Context, u *intel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return errors.Wrapf(errors.ErrValidation, "user %s already exists", u.ID)
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *MemoryDirectory) Update(ctx context.Context, u *intel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "user %s", u.ID)
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *MemoryDirectory) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "user %s", id)
	}
	u.Active = false
	return nil
}

func (m *MemoryDirectory) List(ctx context.Context) ([]*intel.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*intel.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
