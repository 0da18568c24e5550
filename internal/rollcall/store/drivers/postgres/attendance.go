package postgres

import (
	"context"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/jackc/pgx/v5"
)

type attendanceRepo struct {
	q dbtx
}

const attendanceColumns = `id, event_id, user_id, marked_at, marked_by, scan_method, latitude, longitude, notes, is_member, updated_at`

func scanAttendance(row interface{ Scan(...any) error }) (domain.AttendanceRecord, error) {
	var (
		a        domain.AttendanceRecord
		method   string
		lat, lng *float64
	)
	err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.MarkedAt, &a.MarkedBy, &method, &lat, &lng, &a.Notes, &a.IsMember, &a.UpdatedAt)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	a.MarkedAt = utc(a.MarkedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	a.ScanMethod = domain.ScanMethod(method)
	if lat != nil && lng != nil {
		a.Location = &domain.Location{Latitude: *lat, Longitude: *lng}
	}
	return a, nil
}

func locationArgs(loc *domain.Location) (*float64, *float64) {
	if loc == nil {
		return nil, nil
	}
	return &loc.Latitude, &loc.Longitude
}

func (r *attendanceRepo) CreateAttendance(ctx context.Context, a domain.AttendanceRecord) error {
	lat, lng := locationArgs(a.Location)
	_, err := r.q.Exec(ctx, `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.EventID, a.UserID, a.MarkedAt, a.MarkedBy, string(a.ScanMethod),
		lat, lng, a.Notes, a.IsMember, a.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *attendanceRepo) GetAttendanceByID(ctx context.Context, id string) (domain.AttendanceRecord, error) {
	a, err := scanAttendance(r.q.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id))
	if err != nil {
		return domain.AttendanceRecord{}, mapNotFound(err)
	}
	return a, nil
}

func (r *attendanceRepo) GetAttendanceByEventAndUser(ctx context.Context, eventID, userID string) (domain.AttendanceRecord, error) {
	a, err := scanAttendance(r.q.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if err != nil {
		return domain.AttendanceRecord{}, mapNotFound(err)
	}
	return a, nil
}

func (r *attendanceRepo) UpdateAttendance(ctx context.Context, a domain.AttendanceRecord) error {
	lat, lng := locationArgs(a.Location)
	return requireAffected(r.q.Exec(ctx, `
		UPDATE attendance
		SET scan_method = $1, latitude = $2, longitude = $3, notes = $4, updated_at = $5
		WHERE id = $6`,
		string(a.ScanMethod), lat, lng, a.Notes, a.UpdatedAt, a.ID,
	))
}

func (r *attendanceRepo) DeleteAttendance(ctx context.Context, id string) error {
	return requireAffected(r.q.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id))
}

func (r *attendanceRepo) ListAttendanceByEvent(ctx context.Context, eventID string) ([]domain.AttendanceRecord, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = $1 ORDER BY marked_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AttendanceRecord, error) {
		return scanAttendance(row)
	})
}
