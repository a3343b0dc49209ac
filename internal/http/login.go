package http

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// ServeHTTP exchanges an email/password pair for a bearer token. Bad
// credentials and unknown emails produce the same response.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteJSON(w, http.StatusUnauthorized, api.ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
			})
		case errors.Is(err, service.ErrUserInactive):
			httpx.WriteJSON(w, http.StatusUnauthorized, api.ErrorResponse{
				Error:   "user_inactive",
				Message: "This account has been deactivated",
			})
		default:
			log.Error("login failed", "err", err)
			writeServerError(w, "Failed to log in")
		}
		return
	}

	token, expiresAt, err := h.TokenService.Issue(ctx, user)
	if err != nil {
		log.Error("failed to issue token", "err", err)
		writeServerError(w, "Failed to log in")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserSummary(user),
	})
}
