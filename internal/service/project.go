package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrInvalidProject       = errors.New("invalid project")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)

type ProjectService struct {
	Store store.Store
}

// ProjectUpdate carries the mutable fields of a project. Nil fields are
// left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *domain.ProjectStatus
}

// Create inserts a project and snapshots the creator's name and email
// onto the row, so the listing survives later renames or removals of
// the creating account.
func (s *ProjectService) Create(ctx context.Context, name, description, creatorID string) (domain.Project, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, ErrInvalidProject
	}

	creator, err := s.Store.Users().GetUserByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrUserNotFound
		}
		log.Error("failed to fetch project creator", slog.Any("error", err))
		return domain.Project{}, err
	}

	project := domain.Project{
		ID:           idx.New().String(),
		Name:         name,
		Description:  description,
		Status:       domain.ProjectActive,
		CreatorID:    creator.ID,
		CreatorName:  creator.Name,
		CreatorEmail: creator.Email,
	}

	if err := s.Store.Projects().CreateProject(ctx, project); err != nil {
		log.Error("failed to create project", slog.Any("error", err))
		return domain.Project{}, err
	}

	log.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("creator_id", creator.ID),
	)

	return s.Store.Projects().GetProjectByID(ctx, project.ID)
}

// List returns all projects that have not been soft-deleted.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.Store.Projects().ListProjects(ctx)
}

// Update applies a partial update to a project. Soft-deleted projects
// behave as if they never existed.
func (s *ProjectService) Update(ctx context.Context, projectID string, upd ProjectUpdate) (domain.Project, error) {
	log := slogx.FromContext(ctx)

	project, err := s.getLive(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return domain.Project{}, ErrInvalidProject
		}
		project.Name = name
	}
	if upd.Description != nil {
		project.Description = *upd.Description
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return domain.Project{}, ErrInvalidProjectStatus
		}
		project.Status = *upd.Status
	}

	if err := s.Store.Projects().UpdateProject(ctx, project); err != nil {
		log.Error("failed to update project",
			slog.String("project_id", projectID),
			slog.Any("error", err),
		)
		return domain.Project{}, err
	}

	return s.Store.Projects().GetProjectByID(ctx, projectID)
}

// SoftDelete hides a project from listings without destroying the row.
func (s *ProjectService) SoftDelete(ctx context.Context, projectID string) error {
	log := slogx.FromContext(ctx)

	project, err := s.getLive(ctx, projectID)
	if err != nil {
		return err
	}

	project.Deleted = true
	project.Status = domain.ProjectDeleted

	if err := s.Store.Projects().UpdateProject(ctx, project); err != nil {
		log.Error("failed to delete project",
			slog.String("project_id", projectID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("project deleted", slog.String("project_id", projectID))
	return nil
}

func (s *ProjectService) getLive(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.Store.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, err
	}
	if project.Deleted {
		return domain.Project{}, ErrProjectNotFound
	}
	return project, nil
}
