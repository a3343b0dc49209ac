package http

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type SeedAdminHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP creates the very first admin. Refused entirely unless
// seeding is enabled in the deployment config, and at most one caller
// can ever win.
func (h *SeedAdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.SeedAdminRequest
	if !decodeValid(w, r, &req) {
		return
	}

	admin, err := h.BootstrapService.SeedFirstAdmin(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedingDisabled):
			httpx.WriteJSON(w, http.StatusForbidden, api.ErrorResponse{
				Error:   "seeding_disabled",
				Message: "Admin seeding is not enabled",
			})
		case errors.Is(err, service.ErrAdminExists):
			httpx.WriteJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:   "admin_exists",
				Message: "An admin account already exists",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:   "email_taken",
				Message: "A user with this email already exists",
			})
		case errors.Is(err, service.ErrInvalidInviteRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid seed parameters",
			})
		default:
			log.Error("failed to seed admin", "err", err)
			writeServerError(w, "Failed to seed admin")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, api.RegisterResponse{
		User: toUserSummary(admin),
	})
}
