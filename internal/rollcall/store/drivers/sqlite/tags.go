package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
)

type tagsRepo struct {
	q dbtx
}

func (r *tagsRepo) ReserveTag(ctx context.Context, t domain.IssuedTag) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO issued_tags (tag_id, user_id, issued_at) VALUES (?, ?, ?)
		ON CONFLICT (tag_id) DO NOTHING`,
		t.TagID, t.UserID, toMillis(t.IssuedAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *tagsRepo) CreatePending(ctx context.Context, p domain.PendingTagRequest) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO pending_tag_requests (id, user_id, tag_id, created_at, expires_at, confirmed, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.TagID, toMillis(p.CreatedAt), toMillis(p.ExpiresAt),
		boolToInt(p.Confirmed), mapOptionalMillis(p.ConfirmedAt),
	)
	return mapConstraint(err)
}

func (r *tagsRepo) GetPending(ctx context.Context, pendingID string) (domain.PendingTagRequest, error) {
	var (
		p                    domain.PendingTagRequest
		createdAt, expiresAt int64
		confirmed            int
		confirmedAt          sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, tag_id, created_at, expires_at, confirmed, confirmed_at
		FROM pending_tag_requests WHERE id = ?`, pendingID,
	).Scan(&p.ID, &p.UserID, &p.TagID, &createdAt, &expiresAt, &confirmed, &confirmedAt)
	if err != nil {
		return domain.PendingTagRequest{}, mapNotFound(err)
	}

	p.CreatedAt = fromMillis(createdAt)
	p.ExpiresAt = fromMillis(expiresAt)
	p.Confirmed = confirmed == 1
	p.ConfirmedAt = mapNullMillisPtr(confirmedAt)
	return p, nil
}

func (r *tagsRepo) DeleteUnconfirmedPendingForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM pending_tag_requests WHERE user_id = ? AND confirmed = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tagsRepo) ConfirmPending(ctx context.Context, pendingID, userID string, now time.Time) (bool, error) {
	ms := toMillis(now)
	res, err := r.q.ExecContext(ctx, `
		UPDATE pending_tag_requests
		SET confirmed = 1, confirmed_at = ?
		WHERE id = ? AND user_id = ? AND confirmed = 0 AND expires_at > ?`,
		ms, pendingID, userID, ms,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *tagsRepo) CountOpenPendingForUser(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pending_tag_requests
		WHERE user_id = ? AND confirmed = 0 AND expires_at > ?`,
		userID, toMillis(now),
	).Scan(&n)
	return n, err
}

func (r *tagsRepo) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM pending_tag_requests WHERE confirmed = 0 AND expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tagsRepo) CreateWrite(ctx context.Context, w domain.TagWrite) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tag_writes (id, user_id, tag_id, method, pending_id, written_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.TagID, string(w.Method), mapOptionalString(w.PendingID), toMillis(w.WrittenAt),
	)
	return mapConstraint(err)
}

func (r *tagsRepo) ListWritesForUser(ctx context.Context, userID string) ([]domain.TagWrite, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, tag_id, method, pending_id, written_at
		FROM tag_writes WHERE user_id = ?
		ORDER BY written_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TagWrite
	for rows.Next() {
		var (
			w         domain.TagWrite
			method    string
			pendingID sql.NullString
			writtenAt int64
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.TagID, &method, &pendingID, &writtenAt); err != nil {
			return nil, err
		}
		w.Method = domain.TagWriteMethod(method)
		w.PendingID = mapNullStringPtr(pendingID)
		w.WrittenAt = fromMillis(writtenAt)
		out = append(out, w)
	}
	return out, rows.Err()
}
