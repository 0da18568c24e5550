package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

type attendanceRepo struct {
	q dbtx
}

const attendanceColumns = `id, event_id, user_id, marked_at, marked_by, scan_method, latitude, longitude, notes, is_member, updated_at`

func scanAttendance(row interface{ Scan(...any) error }) (domain.AttendanceRecord, error) {
	var (
		a                   domain.AttendanceRecord
		markedAt, updatedAt int64
		method              string
		lat, lng            sql.NullFloat64
		notes               sql.NullString
		isMember            int
	)
	err := row.Scan(&a.ID, &a.EventID, &a.UserID, &markedAt, &a.MarkedBy, &method, &lat, &lng, &notes, &isMember, &updatedAt)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	a.MarkedAt = fromMillis(markedAt)
	a.UpdatedAt = fromMillis(updatedAt)
	a.ScanMethod = domain.ScanMethod(method)
	if lat.Valid && lng.Valid {
		a.Location = &domain.Location{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	a.Notes = mapNullStringPtr(notes)
	a.IsMember = isMember == 1
	return a, nil
}

func locationArgs(loc *domain.Location) (sql.NullFloat64, sql.NullFloat64) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: loc.Latitude, Valid: true}, sql.NullFloat64{Float64: loc.Longitude, Valid: true}
}

func (r *attendanceRepo) CreateAttendance(ctx context.Context, a domain.AttendanceRecord) error {
	lat, lng := locationArgs(a.Location)
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EventID, a.UserID, toMillis(a.MarkedAt), a.MarkedBy, string(a.ScanMethod),
		lat, lng, mapOptionalString(a.Notes), boolToInt(a.IsMember), toMillis(a.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *attendanceRepo) GetAttendanceByID(ctx context.Context, id string) (domain.AttendanceRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = ?`, id)
	a, err := scanAttendance(row)
	if err != nil {
		return domain.AttendanceRecord{}, mapNotFound(err)
	}
	return a, nil
}

func (r *attendanceRepo) GetAttendanceByEventAndUser(ctx context.Context, eventID, userID string) (domain.AttendanceRecord, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = ? AND user_id = ?`, eventID, userID)
	a, err := scanAttendance(row)
	if err != nil {
		return domain.AttendanceRecord{}, mapNotFound(err)
	}
	return a, nil
}

func (r *attendanceRepo) UpdateAttendance(ctx context.Context, a domain.AttendanceRecord) error {
	lat, lng := locationArgs(a.Location)
	return requireAffected(r.q.ExecContext(ctx, `
		UPDATE attendance
		SET scan_method = ?, latitude = ?, longitude = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		string(a.ScanMethod), lat, lng, mapOptionalString(a.Notes), toMillis(a.UpdatedAt), a.ID,
	))
}

func (r *attendanceRepo) DeleteAttendance(ctx context.Context, id string) error {
	return requireAffected(r.q.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id))
}

func (r *attendanceRepo) ListAttendanceByEvent(ctx context.Context, eventID string) ([]domain.AttendanceRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = ? ORDER BY marked_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AttendanceRecord
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
