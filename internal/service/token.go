package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/pkg/jwtx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration
}

// Issue signs a bearer token for the given user. The token carries the
// user id as subject and the role as a custom claim; a verifier holding
// the same secret can authorize requests without a store round trip.
func (s *TokenService) Issue(ctx context.Context, user domain.User) (string, time.Time, error) {
	log := slogx.FromContext(ctx)

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	now := time.Now()
	claims := jwtx.NewAccessClaims(user.ID, user.Role.String(), s.Issuer, ttl, now)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign access token",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return "", time.Time{}, err
	}

	return token, claims.ExpiresAt.Time, nil
}
