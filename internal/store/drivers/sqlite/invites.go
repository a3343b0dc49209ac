package sqlite

import (
	"context"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
)

type invitesRepo struct {
	db dbtx
}

const inviteColumns = `id, email, role, token_hash, expires_at, accepted_at, created_at`

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	const query = `
		INSERT INTO invites (id, email, role, token_hash, expires_at, accepted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.Email,
		string(inv.Role),
		inv.TokenHash,
		inv.ExpiresAt.UTC(),
		inv.AcceptedAt,
		inv.CreatedAt,
	)
	return mapErr(err)
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM invites WHERE token_hash = ?`

	row := r.db.QueryRowContext(ctx, query, hash)
	return scanInvite(row)
}

func (r *invitesRepo) MarkInviteAccepted(ctx context.Context, inviteID string) error {
	const query = `UPDATE invites SET accepted_at = ? WHERE id = ? AND accepted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), inviteID)
	if err != nil {
		return mapErr(err)
	}
	return requireRowAffected(res)
}

func (r *invitesRepo) DeleteInvite(ctx context.Context, inviteID string) error {
	const query = `DELETE FROM invites WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, inviteID)
	if err != nil {
		return mapErr(err)
	}
	return requireRowAffected(res)
}

func scanInvite(row scanner) (domain.Invite, error) {
	var inv domain.Invite
	var role string

	err := row.Scan(
		&inv.ID,
		&inv.Email,
		&role,
		&inv.TokenHash,
		&inv.ExpiresAt,
		&inv.AcceptedAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return domain.Invite{}, mapErr(err)
	}

	inv.Role = domain.Role(role)
	return inv, nil
}
