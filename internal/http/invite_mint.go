package http

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type InviteMintHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP mints an invite for an email/role pair. Admin only; the
// route chain enforces that before this handler runs. The response is
// the only place the raw invite token ever appears.
func (h *InviteMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.InviteRequest
	if !decodeValid(w, r, &req) {
		return
	}

	minted, err := h.InviteService.Mint(ctx, req.Email, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInviteRequest), errors.Is(err, service.ErrInvalidRole):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid invite parameters",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:   "email_taken",
				Message: "A user with this email already exists",
			})
		case errors.Is(err, service.ErrDeliveryFailed):
			httpx.WriteJSON(w, http.StatusInternalServerError, api.ErrorResponse{
				Error:   "delivery_failed",
				Message: "Could not deliver the invitation; nothing was saved",
			})
		default:
			log.Error("failed to mint invite", "err", err)
			writeServerError(w, "Failed to create invite")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.InviteResponse{
		Invite:    toInviteSummary(minted.Invite),
		Token:     minted.Token,
		InviteURL: minted.InviteURL,
	})
}
