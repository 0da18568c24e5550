package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
)

const maxAuditListLimit = 500

// AuditTrail is the append-only record of tag writes and attendance
// mutations.
type AuditTrail struct {
	Store store.Store
	Clock clockx.Clock
}

// Entry is what callers supply; the trail fills in id and timestamp.
type Entry struct {
	Kind       domain.AuditKind
	ActorID    string
	SubjectID  string
	ResourceID string
	Payload    any // marshalled to a JSON object
}

// Record appends e in its own write.
func (a *AuditTrail) Record(ctx context.Context, e Entry) error {
	return a.RecordTx(ctx, a.Store, e)
}

// RecordTx appends e through s, which is normally the caller's open
// transaction so the audit row commits or rolls back with the mutation.
func (a *AuditTrail) RecordTx(ctx context.Context, s store.Store, e Entry) error {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return err
	}

	now := clockx.OrReal(a.Clock).Now()
	event := domain.AuditEvent{
		ID:         idx.NewAt(now).String(),
		Kind:       e.Kind,
		ActorID:    e.ActorID,
		SubjectID:  e.SubjectID,
		ResourceID: e.ResourceID,
		Payload:    payload,
		CreatedAt:  now,
	}
	if err := s.Audit().AppendAuditEvent(ctx, event); err != nil {
		return fmt.Errorf("append audit event %s: %w", e.Kind, err)
	}
	return nil
}

// List returns newest first. The limit is clamped to a sane maximum.
func (a *AuditTrail) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error) {
	if f.Limit <= 0 || f.Limit > maxAuditListLimit {
		f.Limit = maxAuditListLimit
	}
	events, err := a.Store.Audit().ListAuditEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage(`{}`), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, fmt.Errorf("audit payload must be a JSON object, got %T", v)
	}
	return b, nil
}
