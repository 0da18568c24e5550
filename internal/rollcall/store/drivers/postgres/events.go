package postgres

import (
	"context"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type eventsRepo struct {
	q dbtx
}

func (r *eventsRepo) UpsertEvent(ctx context.Context, e domain.Event) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO events (id, organization_id, name, event_start, event_end, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			name            = EXCLUDED.name,
			event_start     = EXCLUDED.event_start,
			event_end       = EXCLUDED.event_end,
			created_by      = EXCLUDED.created_by`,
		e.ID, e.OrganizationID, e.Name, e.Start, e.End, e.CreatedBy,
	)
	return err
}

func (r *eventsRepo) GetEventByID(ctx context.Context, id string) (domain.Event, error) {
	var e domain.Event
	err := r.q.QueryRow(ctx, `
		SELECT id, organization_id, name, event_start, event_end, created_by
		FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.OrganizationID, &e.Name, &e.Start, &e.End, &e.CreatedBy)
	if err != nil {
		return domain.Event{}, mapNotFound(err)
	}
	e.Start = utcPtr(e.Start)
	e.End = utcPtr(e.End)
	return e, nil
}
