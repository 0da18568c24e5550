package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, display_name, email, active_tag_id, last_tag_written_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.ActiveTagID, &u.LastTagWrittenAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.LastTagWrittenAt = utcPtr(u.LastTagWrittenAt)
	u.CreatedAt = utc(u.CreatedAt)
	u.UpdatedAt = utc(u.UpdatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) LockUser(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByActiveTag(ctx context.Context, tagID string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE active_tag_id = $1`, tagID))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, display_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email        = EXCLUDED.email,
			updated_at   = EXCLUDED.updated_at`,
		u.ID, u.DisplayName, u.Email,
	)
	return err
}

func (r *usersRepo) EnsureUser(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, created_at, updated_at) VALUES ($1, now(), now())
		ON CONFLICT (id) DO NOTHING`, id)
	return err
}

func (r *usersRepo) SetActiveTag(
	ctx context.Context,
	userID, tagID string,
	writtenAt, threshold time.Time,
) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE users
		SET active_tag_id = $1, last_tag_written_at = $2, updated_at = $2
		WHERE id = $3
		  AND (last_tag_written_at IS NULL OR last_tag_written_at <= $4)`,
		tagID, writtenAt, userID, threshold,
	)
	if err != nil {
		return false, mapConstraint(err)
	}
	return tag.RowsAffected() == 1, nil
}
