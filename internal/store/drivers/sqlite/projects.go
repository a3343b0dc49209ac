package sqlite

import (
	"context"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
)

type projectsRepo struct {
	db dbtx
}

const projectColumns = `id, name, description, status, deleted, creator_id, creator_name, creator_email, created_at, updated_at`

func (r *projectsRepo) GetProjectByID(ctx context.Context, id string) (domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	return scanProject(row)
}

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) error {
	const query = `
		INSERT INTO projects (id, name, description, status, deleted, creator_id, creator_name, creator_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		string(p.Status),
		p.Deleted,
		p.CreatorID,
		p.CreatorName,
		p.CreatorEmail,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapErr(err)
}

func (r *projectsRepo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE deleted = 0 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectsRepo) UpdateProject(ctx context.Context, p domain.Project) error {
	const query = `
		UPDATE projects
		SET name = ?, description = ?, status = ?, deleted = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		string(p.Status),
		p.Deleted,
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	return requireRowAffected(res)
}

func scanProject(row scanner) (domain.Project, error) {
	var p domain.Project
	var status string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&status,
		&p.Deleted,
		&p.CreatorID,
		&p.CreatorName,
		&p.CreatorEmail,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, mapErr(err)
	}

	p.Status = domain.ProjectStatus(status)
	return p, nil
}
