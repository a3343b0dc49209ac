package store

import (
	"context"
	"errors"

	"github.com/crewdeck/crewdeck/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable. Duplicate-prevention pre-checks in the services are advisory
// only; the drivers' unique constraints are the correctness backstop, and
// violations surface as ErrAlreadyExists.
type Store interface {
	Users() Users
	Invites() Invites
	Projects() Projects

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the authentication-path lookup; it is the only read
	// that is allowed to feed the password hash into a comparison.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists on an email uniqueness violation.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRole sets the role and bumps updated_at.
	UpdateRole(ctx context.Context, userID string, role domain.Role) error

	// UpdateStatus sets the activation status and bumps updated_at.
	UpdateStatus(ctx context.Context, userID string, status domain.Status) error

	// List returns a page of users ordered by creation date (newest first).
	List(ctx context.Context, offset, limit int) ([]domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)

	// AdminExists reports whether any user holds the ADMIN role.
	AdminExists(ctx context.Context) (bool, error)
}

type Invites interface {
	// CreateInvite writes a new invite. Returns ErrAlreadyExists on a
	// token fingerprint collision.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInviteByTokenHash returns an invite by its token fingerprint,
	// regardless of acceptance or expiry state.
	GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error)

	// MarkInviteAccepted sets accepted_at=now exactly once
	// (transaction-friendly).
	MarkInviteAccepted(ctx context.Context, inviteID string) error

	// DeleteInvite removes an invite. Only the delivery-failure rollback
	// path uses this.
	DeleteInvite(ctx context.Context, inviteID string) error
}

type Projects interface {
	// GetProjectByID returns a project by id, including soft-deleted rows.
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)

	// CreateProject inserts a new project.
	CreateProject(ctx context.Context, p domain.Project) error

	// ListProjects returns non-deleted projects, newest first.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// UpdateProject persists the mutable fields (name, description, status,
	// deleted) and bumps updated_at.
	UpdateProject(ctx context.Context, p domain.Project) error
}
