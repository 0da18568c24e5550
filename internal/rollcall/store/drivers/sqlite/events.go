package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type eventsRepo struct {
	q dbtx
}

func (r *eventsRepo) UpsertEvent(ctx context.Context, e domain.Event) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO events (id, organization_id, name, event_start, event_end, created_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = excluded.organization_id,
			name            = excluded.name,
			event_start     = excluded.event_start,
			event_end       = excluded.event_end,
			created_by      = excluded.created_by`,
		e.ID, e.OrganizationID, e.Name, mapOptionalMillis(e.Start), mapOptionalMillis(e.End), e.CreatedBy,
	)
	return err
}

func (r *eventsRepo) GetEventByID(ctx context.Context, id string) (domain.Event, error) {
	var (
		e          domain.Event
		start, end sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, organization_id, name, event_start, event_end, created_by
		FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.OrganizationID, &e.Name, &start, &end, &e.CreatedBy)
	if err != nil {
		return domain.Event{}, mapNotFound(err)
	}
	e.Start = mapNullMillisPtr(start)
	e.End = mapNullMillisPtr(end)
	return e, nil
}
