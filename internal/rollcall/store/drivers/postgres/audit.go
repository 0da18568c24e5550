package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/jackc/pgx/v5"
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
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_events (id, kind, actor_id, subject_id, resource_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		e.ID, string(e.Kind), e.ActorID, e.SubjectID, e.ResourceID, payload, e.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *auditRepo) ListAuditEvents(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.SubjectID != "" {
		add("subject_id = $%d", f.SubjectID)
	}
	if f.ResourceID != "" {
		add("resource_id = $%d", f.ResourceID)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := `SELECT id, kind, actor_id, subject_id, resource_id, payload::text, created_at FROM audit_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditEvent, error) {
		var (
			e       domain.AuditEvent
			kind    string
			payload string
		)
		if err := row.Scan(&e.ID, &kind, &e.ActorID, &e.SubjectID, &e.ResourceID, &payload, &e.CreatedAt); err != nil {
			return domain.AuditEvent{}, err
		}
		e.Kind = domain.AuditKind(kind)
		e.Payload = json.RawMessage(payload)
		e.CreatedAt = utc(e.CreatedAt)
		return e, nil
	})
}
