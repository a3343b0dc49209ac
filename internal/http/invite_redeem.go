package http

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type InviteRedeemHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP redeems an invite token and creates the invited account.
func (h *InviteRedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := h.InviteService.Accept(ctx, req.Token, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInviteRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid registration parameters",
			})
		case errors.Is(err, service.ErrInviteNotFound):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invite_not_found",
				Message: "This invitation does not exist",
			})
		case errors.Is(err, service.ErrInviteUsed):
			httpx.WriteJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:   "invite_used",
				Message: "This invitation has already been used",
			})
		case errors.Is(err, service.ErrInviteExpired):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invite_expired",
				Message: "This invitation has expired",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:   "email_taken",
				Message: "A user with this email already exists",
			})
		default:
			log.Error("failed to redeem invite", "err", err)
			writeServerError(w, "Failed to register")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.RegisterResponse{
		User: toUserSummary(user),
	})
}
