package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newInviteService(t *testing.T) (*InviteService, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	svc := &InviteService{
		Store:       newTestStore(t),
		Notifier:    notifier,
		FrontendURL: "https://crewdeck.test",
	}
	return svc, notifier
}

func TestInviteMintAndAccept(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newInviteService(t)

	minted, err := svc.Mint(ctx, "Alice@Example.com", domain.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, minted.Token)
	require.Equal(t, "alice@example.com", minted.Invite.Email)
	require.Contains(t, minted.InviteURL, minted.Token)
	require.True(t, strings.HasPrefix(minted.InviteURL, "https://crewdeck.test/register?invite="))

	// Only the fingerprint is at rest.
	stored, err := svc.Store.Invites().GetInviteByTokenHash(ctx, cryptox.FingerprintToken(minted.Token))
	require.NoError(t, err)
	require.NotEqual(t, minted.Token, stored.TokenHash)

	require.Len(t, notifier.delivered(), 1)

	user, err := svc.Accept(ctx, minted.Token, "Alice", "super-secret-pass")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, domain.RoleManager, user.Role)
	require.Equal(t, domain.StatusActive, user.Status)

	fetched, err := svc.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("super-secret-pass", fetched.PasswordHash))
}

func TestInviteAcceptIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	minted, err := svc.Mint(ctx, "bob@example.com", domain.RoleStaff)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, minted.Token, "Bob", "super-secret-pass")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, minted.Token, "Mallory", "another-pass-123")
	require.ErrorIs(t, err, ErrInviteUsed)
}

func TestInviteAcceptExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	// Seed an already-expired invite directly.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	err = svc.Store.Invites().CreateInvite(ctx, domain.Invite{
		ID:        idx.New().String(),
		Email:     "late@example.com",
		Role:      domain.RoleStaff,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, err = svc.Accept(ctx, token, "Late", "super-secret-pass")
	require.ErrorIs(t, err, ErrInviteExpired)
}

func TestInviteAcceptUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	_, err := svc.Accept(ctx, "no-such-token", "Nobody", "super-secret-pass")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInviteMintRejectsRegisteredEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	hash, err := cryptox.HashPassword("super-secret-pass")
	require.NoError(t, err)
	require.NoError(t, svc.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Name:         "Carol",
		Email:        "carol@example.com",
		PasswordHash: hash,
		Role:         domain.RoleStaff,
		Status:       domain.StatusActive,
	}))

	_, err = svc.Mint(ctx, "carol@example.com", domain.RoleStaff)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestInviteMintValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	_, err := svc.Mint(ctx, "not-an-email", domain.RoleStaff)
	require.ErrorIs(t, err, ErrInvalidInviteRequest)

	_, err = svc.Mint(ctx, "fine@example.com", domain.Role("OVERLORD"))
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestInviteMintRollsBackOnDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newInviteService(t)
	notifier.fail = true

	_, err := svc.Mint(ctx, "dave@example.com", domain.RoleStaff)
	require.ErrorIs(t, err, ErrDeliveryFailed)

	// The compensating delete must leave the address re-invitable and
	// no orphaned record behind.
	notifier.fail = false
	minted, err := svc.Mint(ctx, "dave@example.com", domain.RoleStaff)
	require.NoError(t, err)
	require.NotEmpty(t, minted.Token)
}

func TestInviteAcceptRacesRegisteredEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	minted, err := svc.Mint(ctx, "eve@example.com", domain.RoleStaff)
	require.NoError(t, err)

	// Someone registers the same email between mint and accept.
	hash, err := cryptox.HashPassword("super-secret-pass")
	require.NoError(t, err)
	require.NoError(t, svc.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Name:         "Eve",
		Email:        "eve@example.com",
		PasswordHash: hash,
		Role:         domain.RoleStaff,
		Status:       domain.StatusActive,
	}))

	_, err = svc.Accept(ctx, minted.Token, "Eve", "another-pass-123")
	require.ErrorIs(t, err, ErrEmailTaken)

	// The failed acceptance must not have consumed the invite.
	stored, err := svc.Store.Invites().GetInviteByTokenHash(ctx, cryptox.FingerprintToken(minted.Token))
	require.NoError(t, err)
	require.False(t, stored.Accepted())
}
