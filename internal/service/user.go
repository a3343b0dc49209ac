package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserInactive       = errors.New("user_inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidStatus      = errors.New("invalid status")
)

const (
	// DefaultPageSize applies when a list request omits the limit.
	DefaultPageSize = 10
	// MaxPageSize caps the limit a caller may request.
	MaxPageSize = 50
)

type UserService struct {
	Store store.Store
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown emails and wrong passwords both collapse into
// ErrInvalidCredentials so callers cannot probe for registered accounts.
// Deactivated accounts are rejected after the password check.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// Stored emails are lowercase, so the submitted one must match.
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("login attempted with unknown email")
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user for login", slog.Any("error", err))
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login attempted with wrong password",
			slog.String("user_id", user.ID),
		)
		return domain.User{}, ErrInvalidCredentials
	}

	if !user.Active() {
		log.Warn("login attempted by deactivated user",
			slog.String("user_id", user.ID),
		)
		return domain.User{}, ErrUserInactive
	}

	return user, nil
}

// UserPage is one page of the user directory.
type UserPage struct {
	Page  int
	Limit int
	Total int64
	Users []domain.User
}

// List returns a page of users, newest first. Out-of-range paging inputs
// are clamped rather than rejected: page floors at 1 and limit is held
// to 1..MaxPageSize.
func (s *UserService) List(ctx context.Context, page, limit int) (UserPage, error) {
	log := slogx.FromContext(ctx)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	total, err := s.Store.Users().Count(ctx)
	if err != nil {
		log.Error("failed to count users", slog.Any("error", err))
		return UserPage{}, err
	}

	users, err := s.Store.Users().List(ctx, (page-1)*limit, limit)
	if err != nil {
		log.Error("failed to list users", slog.Any("error", err))
		return UserPage{}, err
	}

	return UserPage{
		Page:  page,
		Limit: limit,
		Total: total,
		Users: users,
	}, nil
}

// UpdateRole reassigns a user's role.
func (s *UserService) UpdateRole(ctx context.Context, userID string, role domain.Role) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if !role.Valid() {
		log.Warn("role update attempted with invalid role",
			slog.String("user_id", userID),
			slog.String("role", string(role)),
		)
		return domain.User{}, ErrInvalidRole
	}

	if err := s.Store.Users().UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		log.Error("failed to update role", slog.Any("error", err))
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", role.String()),
	)
	return user, nil
}

// UpdateStatus activates or deactivates a user. Deactivation takes
// effect on the user's next request; tokens already in flight are cut
// off by the per-request status re-check in the authentication layer.
func (s *UserService) UpdateStatus(ctx context.Context, userID string, status domain.Status) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if !status.Valid() {
		log.Warn("status update attempted with invalid status",
			slog.String("user_id", userID),
			slog.String("status", string(status)),
		)
		return domain.User{}, ErrInvalidStatus
	}

	if err := s.Store.Users().UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		log.Error("failed to update status", slog.Any("error", err))
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user status updated",
		slog.String("user_id", userID),
		slog.String("status", string(status)),
	)
	return user, nil
}

// Get returns a single user by id.
func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// LookupSubject satisfies httpx.SubjectSource. It re-reads the user on
// every authenticated request so that deactivation revokes access even
// while a previously issued token is still unexpired.
func (s *UserService) LookupSubject(ctx context.Context, userID string) (httpx.Subject, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Subject{}, httpx.ErrSubjectUnknown
		}
		return httpx.Subject{}, err
	}
	if !user.Active() {
		return httpx.Subject{}, httpx.ErrSubjectInactive
	}
	return httpx.Subject{
		ID:   user.ID,
		Role: user.Role.String(),
	}, nil
}
