package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/jackc/pgx/v5"
)

type tagsRepo struct {
	q dbtx
}

func (r *tagsRepo) ReserveTag(ctx context.Context, t domain.IssuedTag) error {
	// A unique violation would abort the whole transaction in Postgres, so
	// collisions are detected through the affected row count instead.
	tag, err := r.q.Exec(ctx, `
		INSERT INTO issued_tags (tag_id, user_id, issued_at) VALUES ($1, $2, $3)
		ON CONFLICT (tag_id) DO NOTHING`,
		t.TagID, t.UserID, t.IssuedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *tagsRepo) CreatePending(ctx context.Context, p domain.PendingTagRequest) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO pending_tag_requests (id, user_id, tag_id, created_at, expires_at, confirmed, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.TagID, p.CreatedAt, p.ExpiresAt, p.Confirmed, p.ConfirmedAt,
	)
	return mapConstraint(err)
}

func (r *tagsRepo) GetPending(ctx context.Context, pendingID string) (domain.PendingTagRequest, error) {
	var p domain.PendingTagRequest
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, tag_id, created_at, expires_at, confirmed, confirmed_at
		FROM pending_tag_requests WHERE id = $1`, pendingID,
	).Scan(&p.ID, &p.UserID, &p.TagID, &p.CreatedAt, &p.ExpiresAt, &p.Confirmed, &p.ConfirmedAt)
	if err != nil {
		return domain.PendingTagRequest{}, mapNotFound(err)
	}
	p.CreatedAt = utc(p.CreatedAt)
	p.ExpiresAt = utc(p.ExpiresAt)
	p.ConfirmedAt = utcPtr(p.ConfirmedAt)
	return p, nil
}

func (r *tagsRepo) DeleteUnconfirmedPendingForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM pending_tag_requests WHERE user_id = $1 AND NOT confirmed`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *tagsRepo) ConfirmPending(ctx context.Context, pendingID, userID string, now time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE pending_tag_requests
		SET confirmed = TRUE, confirmed_at = $1
		WHERE id = $2 AND user_id = $3 AND NOT confirmed AND expires_at > $1`,
		now, pendingID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tagsRepo) CountOpenPendingForUser(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM pending_tag_requests
		WHERE user_id = $1 AND NOT confirmed AND expires_at > $2`,
		userID, now,
	).Scan(&n)
	return n, err
}

func (r *tagsRepo) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM pending_tag_requests WHERE NOT confirmed AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *tagsRepo) CreateWrite(ctx context.Context, w domain.TagWrite) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tag_writes (id, user_id, tag_id, method, pending_id, written_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.UserID, w.TagID, string(w.Method), w.PendingID, w.WrittenAt,
	)
	return mapConstraint(err)
}

func (r *tagsRepo) ListWritesForUser(ctx context.Context, userID string) ([]domain.TagWrite, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, tag_id, method, pending_id, written_at
		FROM tag_writes WHERE user_id = $1
		ORDER BY written_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TagWrite, error) {
		var (
			w      domain.TagWrite
			method string
		)
		if err := row.Scan(&w.ID, &w.UserID, &w.TagID, &method, &w.PendingID, &w.WrittenAt); err != nil {
			return domain.TagWrite{}, err
		}
		w.Method = domain.TagWriteMethod(method)
		w.WrittenAt = utc(w.WrittenAt)
		return w, nil
	})
}
