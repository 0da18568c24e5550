package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type auditRepo struct {
	q dbtx
}

const defaultAuditLimit = 100

func (r *auditRepo) AppendAuditEvent(ctx context.Context, e domain.AuditEvent) error {
	payload := string(e.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_events (id, kind, actor_id, subject_id, resource_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.ActorID, e.SubjectID, e.ResourceID, payload, toMillis(e.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListAuditEvents(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.ResourceID != "" {
		where = append(where, "resource_id = ?")
		args = append(args, f.ResourceID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := `SELECT id, kind, actor_id, subject_id, resource_id, payload, created_at FROM audit_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			e         domain.AuditEvent
			kind      string
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.ActorID, &e.SubjectID, &e.ResourceID, &payload, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = domain.AuditKind(kind)
		e.Payload = json.RawMessage(payload)
		e.CreatedAt = fromMillis(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
