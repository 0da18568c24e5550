package sqlite

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type organizationsRepo struct {
	q dbtx
}

func (r *organizationsRepo) UpsertOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		o.ID, o.Name, toMillis(o.CreatedAt),
	)
	return err
}

func (r *organizationsRepo) UpsertMembership(ctx context.Context, m domain.Membership) error {
	if !m.Role.Valid() {
		return fmt.Errorf("sqlite: invalid role %d for membership", m.Role)
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO memberships (user_id, organization_id, role, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, organization_id) DO UPDATE SET role = excluded.role`,
		m.UserID, m.OrganizationID, m.Role.String(), toMillis(m.JoinedAt),
	)
	return err
}

func (r *organizationsRepo) GetMembership(ctx context.Context, userID, organizationID string) (domain.Membership, error) {
	var (
		m        domain.Membership
		role     string
		joinedAt int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, organization_id, role, joined_at
		FROM memberships WHERE user_id = ? AND organization_id = ?`,
		userID, organizationID,
	).Scan(&m.UserID, &m.OrganizationID, &role, &joinedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}

	m.Role, err = domain.ParseRole(role)
	if err != nil {
		return domain.Membership{}, err
	}
	m.JoinedAt = fromMillis(joinedAt)
	return m, nil
}

func (r *organizationsRepo) CountMembers(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE organization_id = ?`, organizationID,
	).Scan(&n)
	return n, err
}
