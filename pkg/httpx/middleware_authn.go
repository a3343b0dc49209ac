package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/crewdeck/crewdeck/pkg/jwtx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	// ErrSubjectUnknown means the token's subject no longer exists.
	ErrSubjectUnknown = errors.New("httpx: subject unknown")
	// ErrSubjectInactive means the subject exists but has been deactivated.
	ErrSubjectInactive = errors.New("httpx: subject inactive")
)

// Subject is the authenticated principal attached to a request.
type Subject struct {
	ID   string
	Role string
}

// SubjectSource resolves a token subject to its current state. The
// authn middleware consults it on every request so that revocation
// (deactivation, deletion) takes effect before the token expires.
type SubjectSource interface {
	LookupSubject(ctx context.Context, id string) (Subject, error)
}

// AuthnMiddleware verifies the bearer token and injects the subject's
// id and current role into the request context. The role comes from the
// source, not the token claim, so a mid-token role change is honoured
// on the very next request.
func AuthnMiddleware(v jwtx.Verifier, src SubjectSource) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				writeBearerError(w, "token expired")
				return
			}

			subject, err := src.LookupSubject(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, ErrSubjectUnknown) || errors.Is(err, ErrSubjectInactive) {
					log.Warn("token subject rejected",
						"sub", claims.Subject,
						"err", err,
					)
					writeBearerError(w, "subject no longer valid")
					return
				}
				log.Error("subject lookup failed", "err", err)
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal_error",
				})
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, subject.ID)
			ctx = context.WithValue(ctx, CtxKeyRole, subject.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": desc,
	})
}
