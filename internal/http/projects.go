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

type ProjectsHandler struct {
	ProjectService *service.ProjectService
}

func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.CreateProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}

	creatorID := httpx.UserIDFromContext(ctx)

	project, err := h.ProjectService.Create(ctx, req.Name, req.Description, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProject):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid project parameters",
			})
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, api.ErrorResponse{
				Error:   "user_not_found",
				Message: "Creator account not found",
			})
		default:
			log.Error("failed to create project", "err", err)
			writeServerError(w, "Failed to create project")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toProjectSummary(project))
}

func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	projects, err := h.ProjectService.List(ctx)
	if err != nil {
		log.Error("failed to list projects", "err", err)
		writeServerError(w, "Failed to list projects")
		return
	}

	items := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		items = append(items, toProjectSummary(p))
	}

	httpx.WriteJSON(w, http.StatusOK, api.ListProjectsResponse{Items: items})
}

func (h *ProjectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req api.UpdateProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}

	upd := service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		upd.Status = &status
	}

	project, err := h.ProjectService.Update(ctx, r.PathValue("id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, api.ErrorResponse{
				Error:   "project_not_found",
				Message: "Project not found",
			})
		case errors.Is(err, service.ErrInvalidProject), errors.Is(err, service.ErrInvalidProjectStatus):
			httpx.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid project parameters",
			})
		default:
			log.Error("failed to update project", "err", err)
			writeServerError(w, "Failed to update project")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProjectSummary(project))
}

func (h *ProjectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.ProjectService.SoftDelete(ctx, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, api.ErrorResponse{
				Error:   "project_not_found",
				Message: "Project not found",
			})
		default:
			log.Error("failed to delete project", "err", err)
			writeServerError(w, "Failed to delete project")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
