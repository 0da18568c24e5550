package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type organizationsRepo struct {
	q dbtx
}

func (r *organizationsRepo) UpsertOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO organizations (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		o.ID, o.Name, o.CreatedAt,
	)
	return err
}

func (r *organizationsRepo) UpsertMembership(ctx context.Context, m domain.Membership) error {
	if !m.Role.Valid() {
		return fmt.Errorf("postgres: invalid role %d for membership", m.Role)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO memberships (user_id, organization_id, role, joined_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, organization_id) DO UPDATE SET role = EXCLUDED.role`,
		m.UserID, m.OrganizationID, m.Role.String(), m.JoinedAt,
	)
	return err
}

func (r *organizationsRepo) GetMembership(ctx context.Context, userID, organizationID string) (domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	err := r.q.QueryRow(ctx, `
		SELECT user_id, organization_id, role, joined_at
		FROM memberships WHERE user_id = $1 AND organization_id = $2`,
		userID, organizationID,
	).Scan(&m.UserID, &m.OrganizationID, &role, &m.JoinedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}

	m.Role, err = domain.ParseRole(role)
	if err != nil {
		return domain.Membership{}, err
	}
	m.JoinedAt = utc(m.JoinedAt)
	return m, nil
}

func (r *organizationsRepo) CountMembers(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE organization_id = $1`, organizationID,
	).Scan(&n)
	return n, err
}
