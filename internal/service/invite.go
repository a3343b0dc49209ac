package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/notify"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	ErrInvalidInviteRequest = errors.New("invalid invite request")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInviteUsed           = errors.New("invite has already been used")
	ErrInviteExpired        = errors.New("invite has expired")
	ErrDeliveryFailed       = errors.New("invite delivery failed")
)

// DefaultInviteTTL is how long a minted invite stays redeemable.
const DefaultInviteTTL = 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type InviteService struct {
	Store       store.Store
	Notifier    notify.Notifier
	FrontendURL string
	TTL         time.Duration
}

// MintedInvite is the result of a successful invite mint: the stored
// record plus the raw token, which exists only in this response and in
// the delivered message.
type MintedInvite struct {
	Invite    domain.Invite
	Token     string
	InviteURL string
}

// Mint creates an invite for an email/role pair and hands it to the
// notifier. The store keeps only a SHA-256 fingerprint of the token. If
// delivery fails the invite record is removed again so the address can
// be re-invited immediately, and the delivery error is surfaced wrapped
// in ErrDeliveryFailed.
func (s *InviteService) Mint(ctx context.Context, email string, role domain.Role) (MintedInvite, error) {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	// 1. Validate inputs.
	if !emailPattern.MatchString(email) {
		log.Warn("invite mint attempted with malformed email")
		return MintedInvite{}, ErrInvalidInviteRequest
	}
	if !role.Valid() {
		log.Warn("invite mint attempted with invalid role",
			slog.String("role", string(role)),
		)
		return MintedInvite{}, ErrInvalidRole
	}

	// 2. Refuse to invite an address that already has an account.
	_, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		log.Warn("invite mint attempted for registered email")
		return MintedInvite{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email availability", slog.Any("error", err))
		return MintedInvite{}, err
	}

	// 3. Generate and fingerprint the token.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return MintedInvite{}, err
	}
	fingerprint := cryptox.FingerprintToken(token)

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	invite := domain.Invite{
		ID:        idx.New().String(),
		Email:     email,
		Role:      role,
		TokenHash: fingerprint,
		ExpiresAt: time.Now().Add(ttl).UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.Invites().CreateInvite(ctx, invite); err != nil {
		log.Error("failed to create invite",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return MintedInvite{}, err
	}

	inviteURL := s.inviteURL(token)

	// 4. Deliver. A failed delivery compensates by deleting the record;
	// a half-delivered invite must not block re-inviting the address.
	err = s.Notifier.SendInvitation(ctx, notify.Invitation{
		Email:     email,
		InviteURL: inviteURL,
		Role:      role,
		ExpiresAt: invite.ExpiresAt,
	})
	if err != nil {
		log.Error("invite delivery failed, rolling back",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		if delErr := s.Store.Invites().DeleteInvite(ctx, invite.ID); delErr != nil {
			log.Error("failed to roll back undelivered invite",
				slog.String("invite_id", invite.ID),
				slog.Any("error", delErr),
			)
		}
		return MintedInvite{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	log.Info("invite minted",
		slog.String("invite_id", invite.ID),
		slog.String("role", role.String()),
		slog.Time("expires_at", invite.ExpiresAt),
	)

	return MintedInvite{
		Invite:    invite,
		Token:     token,
		InviteURL: inviteURL,
	}, nil
}

// Accept redeems an invite token and creates the invited user. The user
// insert and the single-use flip of the invite happen in one
// transaction, so a crash between the two cannot strand a redeemed
// invite without its account.
func (s *InviteService) Accept(ctx context.Context, token, name, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if token == "" || name == "" || password == "" {
		log.Warn("invite acceptance missing required fields")
		return domain.User{}, ErrInvalidInviteRequest
	}

	fingerprint := cryptox.FingerprintToken(token)
	invite, err := s.Store.Invites().GetInviteByTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invite acceptance attempted with unknown token")
			return domain.User{}, ErrInviteNotFound
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return domain.User{}, err
	}

	if invite.Accepted() {
		log.Warn("invite acceptance attempted with already-used invite",
			slog.String("invite_id", invite.ID),
		)
		return domain.User{}, ErrInviteUsed
	}
	if invite.Expired(time.Now()) {
		log.Warn("invite acceptance attempted with expired invite",
			slog.String("invite_id", invite.ID),
		)
		return domain.User{}, ErrInviteExpired
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	newUser := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        invite.Email,
		PasswordHash: passwordHash,
		Role:         invite.Role,
		Status:       domain.StatusActive,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			return err
		}
		return tx.Invites().MarkInviteAccepted(ctx, invite.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("invite acceptance raced a registration for the same email",
				slog.String("invite_id", invite.ID),
			)
			return domain.User{}, ErrEmailTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			// Another acceptance of the same token won the flip.
			return domain.User{}, ErrInviteUsed
		}
		log.Error("failed to accept invite",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}

	log.Info("user registered via invite",
		slog.String("user_id", newUser.ID),
		slog.String("invite_id", invite.ID),
		slog.String("role", newUser.Role.String()),
	)

	return newUser, nil
}

func (s *InviteService) inviteURL(token string) string {
	base := strings.TrimRight(s.FrontendURL, "/")
	if base == "" {
		base = "http://localhost:5173"
	}
	return fmt.Sprintf("%s/register?invite=%s", base, token)
}
