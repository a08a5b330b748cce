// Package identity resolves requester identifiers to users with their role,
// clearance, and active flag. It is the only component that reads the users
// table; the core consumes it through the Directory interface.
package identity

import (
	"context"

	"github.com/ravenfield/copx/intel"
)

// Directory looks up users by identifier. Lookup accepts either a user ID
// or a username; implementations try the ID first.
type Directory interface {
	Lookup(ctx context.Context, identifier string) (*intel.User, error)
}

// Manager extends Directory with user administration, gated upstream on
// the manage-users capability.
type Manager interface {
	Directory
	Create(ctx context.Context, u *intel.User) error
	Update(ctx context.Context, u *intel.User) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]*intel.User, error)
}
