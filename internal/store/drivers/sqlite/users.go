package sqlite

import (
	"context"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, role, status, seeded, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, status, seeded, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), string(u.Status), u.Seeded, now, now)
	return mapErr(err)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRowAffected(res)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID string, status domain.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRowAffected(res)
}

func (r *usersRepo) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *usersRepo) AdminExists(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, string(domain.RoleAdmin)).Scan(&count)
	return count > 0, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		u            domain.User
		role, status string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &status,
		&u.Seeded, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	u.Role = domain.Role(role)
	u.Status = domain.Status(status)
	return u, nil
}
