package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, display_name, email, active_tag_id, last_tag_written_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		activeTag            sql.NullString
		lastWritten          sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &activeTag, &lastWritten, &createdAt, &updatedAt); err != nil {
		return domain.User{}, err
	}
	u.ActiveTagID = mapNullStringPtr(activeTag)
	u.LastTagWrittenAt = mapNullMillisPtr(lastWritten)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

// LockUser needs no row lock here: transactions begin IMMEDIATE and hold
// the database write lock already.
func (r *usersRepo) LockUser(ctx context.Context, id string) (domain.User, error) {
	return r.GetUserByID(ctx, id)
}

func (r *usersRepo) GetUserByActiveTag(ctx context.Context, tagID string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE active_tag_id = ?`, tagID)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) error {
	now := toMillis(time.Now())
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			email        = excluded.email,
			updated_at   = excluded.updated_at`,
		u.ID, u.DisplayName, u.Email, now, now,
	)
	return err
}

func (r *usersRepo) EnsureUser(ctx context.Context, id string) error {
	now := toMillis(time.Now())
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		id, now, now,
	)
	return err
}

func (r *usersRepo) SetActiveTag(
	ctx context.Context,
	userID, tagID string,
	writtenAt, threshold time.Time,
) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET active_tag_id = ?, last_tag_written_at = ?, updated_at = ?
		WHERE id = ?
		  AND (last_tag_written_at IS NULL OR last_tag_written_at <= ?)`,
		tagID, toMillis(writtenAt), toMillis(writtenAt), userID, toMillis(threshold),
	)
	if err != nil {
		return false, mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
