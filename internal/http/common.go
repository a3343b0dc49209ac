package http

import (
	"encoding/json"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
)

// decodeValid decodes the JSON body into out and runs the validate
// tags. It writes the error response itself and reports whether the
// handler may proceed.
func decodeValid(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid JSON body",
		})
		return false
	}

	if fields := api.Validate(out); fields != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, api.ValidationErrorResponse{
			Error:  "validation_failed",
			Fields: fields,
		})
		return false
	}

	return true
}

func writeServerError(w http.ResponseWriter, message string) {
	httpx.WriteJSON(w, http.StatusInternalServerError, api.ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

func toUserSummary(u domain.User) api.UserSummary {
	return api.UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toInviteSummary(inv domain.Invite) api.InviteSummary {
	return api.InviteSummary{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role.String(),
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

func toProjectSummary(p domain.Project) api.ProjectSummary {
	return api.ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status.String(),
		Creator: api.Creator{
			ID:    p.CreatorID,
			Name:  p.CreatorName,
			Email: p.CreatorEmail,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
