package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	ErrSeedingDisabled = errors.New("seeding is disabled")
	ErrAdminExists     = errors.New("an admin already exists")
)

// BootstrapService creates the very first admin account. Everything
// after that first account flows through invites.
type BootstrapService struct {
	Store store.Store

	// Enabled mirrors the deployment flag; the endpoint refuses to seed
	// when it is off regardless of store state.
	Enabled bool
}

// SeedFirstAdmin creates the initial admin. The existing-admin pre-check
// is advisory; the store's partial unique index on seeded users is what
// actually guarantees that two concurrent seed attempts cannot both
// succeed. The loser of that race surfaces as ErrAdminExists.
func (s *BootstrapService) SeedFirstAdmin(ctx context.Context, name, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if !s.Enabled {
		log.Warn("seed attempted while seeding is disabled")
		return domain.User{}, ErrSeedingDisabled
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || password == "" || !emailPattern.MatchString(email) {
		return domain.User{}, ErrInvalidInviteRequest
	}

	exists, err := s.Store.Users().AdminExists(ctx)
	if err != nil {
		log.Error("failed to check for existing admin", slog.Any("error", err))
		return domain.User{}, err
	}
	if exists {
		log.Warn("seed attempted on already-seeded system")
		return domain.User{}, ErrAdminExists
	}

	_, err = s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email availability", slog.Any("error", err))
		return domain.User{}, err
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash admin password", slog.Any("error", err))
		return domain.User{}, err
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
		Seeded:       true,
	}

	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("seed lost a race with another seed attempt")
			return domain.User{}, ErrAdminExists
		}
		log.Error("failed to create admin user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("first admin seeded", slog.String("user_id", admin.ID))
	return admin, nil
}
