package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

type UsersHandler struct {
	UserService *service.UserService
}

// HandleList returns a page of the user directory. The page and limit
// query parameters are clamped, never rejected.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.UserService.List(ctx, page, limit)
	if err != nil {
		log.Error("failed to list users", "err", err)
		writeServerError(w, "Failed to list users")
		return
	}

	items := make([]api.UserSummary, 0, len(result.Users))
	for _, u := range result.Users {
		items = append(items, toUserSummary(u))
	}

	httpx.WriteJSON(w, http.StatusOK, api.ListUsersResponse{
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.Total,
		Items: items,
	})
}

func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.UpdateRoleRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateRole(ctx, r.PathValue("id"), domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, api.ErrorResponse{
				Error:   "user_not_found",
				Message: "User not found",
			})
		case errors.Is(err, service.ErrInvalidRole):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid role",
			})
		default:
			log.Error("failed to update role", "err", err)
			writeServerError(w, "Failed to update role")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserSummary(user))
}

func (h *UsersHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.UpdateStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateStatus(ctx, r.PathValue("id"), domain.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, api.ErrorResponse{
				Error:   "user_not_found",
				Message: "User not found",
			})
		case errors.Is(err, service.ErrInvalidStatus):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid status",
			})
		default:
			log.Error("failed to update status", "err", err)
			writeServerError(w, "Failed to update status")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserSummary(user))
}
