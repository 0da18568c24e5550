package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
	"github.com/aussiebroadwan/rollcall/pkg/idx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// AttendanceService records, corrects and reports attendance. Every
// precondition is checked before anything is written.
type AttendanceService struct {
	Store   store.Store
	Gate    *AuthorizationGate
	Events  EventDirectory
	Members MembershipDirectory
	Audit   *AuditTrail
	Clock   clockx.Clock

	// Tags resolves MarkRequest.TagID to its owner. Required only when
	// requests identify the attendee by tag.
	Tags TagResolver

	// AllowSelfScan lets a member mark their own attendance without
	// CanTakeAttendance. Window and duplicate checks still apply.
	AllowSelfScan bool

	// AllowGuests lets an operator record a non-member when the request
	// asks for it explicitly.
	AllowGuests bool
}

// TagResolver maps a scanned tag id to the user it is bound to.
type TagResolver interface {
	ResolveTag(ctx context.Context, tagID string) (string, error)
}

// MarkRequest names the attendee by UserID or by the TagID read from their
// tag, never both.
type MarkRequest struct {
	EventID    string   `json:"event_id" validate:"required"`
	UserID     string   `json:"user_id" validate:"required_without=TagID"`
	TagID      string   `json:"tag_id" validate:"omitempty,excluded_with=UserID,max=64"`
	ScanMethod string   `json:"scan_method" validate:"required,scan_method"`
	Latitude   *float64 `json:"location_lat" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"location_lng" validate:"omitempty,gte=-180,lte=180"`
	Notes      *string  `json:"notes" validate:"omitempty,max=1000"`
	AsGuest    bool     `json:"as_guest"`
}

type MarkResult struct {
	AttendanceID string
	UserID       string
	MarkedAt     time.Time
	IsMember     bool
}

// AttendancePatch carries the mutable fields. Nil means unchanged;
// ClearLocation removes stored coordinates.
type AttendancePatch struct {
	ScanMethod    *string  `json:"scan_method" validate:"omitempty,scan_method"`
	Latitude      *float64 `json:"location_lat" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"location_lng" validate:"omitempty,gte=-180,lte=180"`
	Notes         *string  `json:"notes" validate:"omitempty,max=1000"`
	ClearLocation bool     `json:"clear_location"`
}

type EventAttendance struct {
	Event   domain.Event
	Summary domain.AttendanceSummary
	Records []domain.AttendanceRecord
}

func (s *AttendanceService) now() time.Time { return clockx.OrReal(s.Clock).Now() }

// MarkAttendance records that req.UserID attended req.EventID.
func (s *AttendanceService) MarkAttendance(ctx context.Context, operatorID string, req MarkRequest) (MarkResult, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("operator_id", operatorID),
		slog.String("event_id", req.EventID),
		slog.String("user_id", req.UserID),
	)
	if req.TagID != "" {
		log = log.With(slog.String("tag_id", req.TagID))
	}
	if operatorID == "" {
		return MarkResult{}, ErrUnauthorized
	}

	// 0. Input validation
	if err := validateStruct(req); err != nil {
		log.Warn("attendance rejected", slog.Any("error", err))
		return MarkResult{}, err
	}
	if err := validateLocation(req.Latitude, req.Longitude); err != nil {
		log.Warn("attendance rejected", slog.Any("error", err))
		return MarkResult{}, err
	}

	res, err := s.markAttendance(ctx, operatorID, req)
	if err != nil {
		if isDomainError(err) {
			log.Warn("attendance rejected", slog.Any("error", err))
		} else {
			log.Error("attendance failed", slog.Any("error", err))
		}
		return MarkResult{}, err
	}

	log.Info("attendance marked",
		slog.String("attendance_id", res.AttendanceID),
		slog.String("subject_id", res.UserID),
		slog.Bool("is_member", res.IsMember),
	)
	return res, nil
}

func (s *AttendanceService) markAttendance(ctx context.Context, operatorID string, req MarkRequest) (MarkResult, error) {
	now := s.now()

	// 1. Event exists
	event, err := s.Events.GetEvent(ctx, req.EventID)
	if err != nil {
		return MarkResult{}, err
	}

	// 2. Operator capability. A denial is held back until the subject is
	// known, since a permitted self-scan does not need the capability.
	decision, err := s.Gate.Check(ctx, operatorID, event.OrganizationID, domain.CapabilityTakeAttendance)
	if err != nil {
		return MarkResult{}, err
	}
	denied := func() error {
		return s.Gate.deny(ctx, operatorID, event.OrganizationID, domain.CapabilityTakeAttendance, decision)
	}

	// Callers without the capability learn nothing about unknown tags.
	subjectID, err := s.resolveSubject(ctx, req)
	if err != nil {
		if !decision.Allowed {
			return MarkResult{}, denied()
		}
		return MarkResult{}, err
	}

	selfScan := s.AllowSelfScan && operatorID == subjectID
	if !decision.Allowed && !selfScan {
		return MarkResult{}, denied()
	}

	// 3. Attendance window
	if !event.WindowContains(now) {
		return MarkResult{}, ErrOutsideWindow
	}

	// 4. Subject membership
	isMember, err := s.subjectIsMember(ctx, subjectID, event.OrganizationID)
	if err != nil {
		return MarkResult{}, err
	}
	if !isMember && (selfScan || !s.AllowGuests || !req.AsGuest) {
		return MarkResult{}, fmt.Errorf("%w: %s", ErrForbidden, ReasonNotMember)
	}

	record := domain.AttendanceRecord{
		ID:         idx.NewAt(now).String(),
		EventID:    event.ID,
		UserID:     subjectID,
		MarkedAt:   now,
		MarkedBy:   operatorID,
		ScanMethod: domain.ScanMethod(req.ScanMethod),
		Notes:      req.Notes,
		IsMember:   isMember,
		UpdatedAt:  now,
	}
	if req.Latitude != nil && req.Longitude != nil {
		record.Location = &domain.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 5. Duplicate check; the unique index settles races.
		_, err := tx.Attendance().GetAttendanceByEventAndUser(ctx, event.ID, subjectID)
		if err == nil {
			return ErrAlreadyMarked
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check existing attendance: %w", err)
		}

		if err := tx.Users().EnsureUser(ctx, subjectID); err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if err := tx.Attendance().CreateAttendance(ctx, record); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyMarked
			}
			return fmt.Errorf("create attendance: %w", err)
		}

		payload := map[string]any{
			"event_id":    event.ID,
			"scan_method": record.ScanMethod,
			"is_member":   isMember,
			"self_scan":   selfScan,
		}
		if req.TagID != "" {
			payload["tag_id"] = req.TagID
		}
		return s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditAttendanceMarked,
			ActorID:    operatorID,
			SubjectID:  subjectID,
			ResourceID: record.ID,
			Payload:    payload,
		})
	})
	if err != nil {
		return MarkResult{}, err
	}

	return MarkResult{AttendanceID: record.ID, UserID: subjectID, MarkedAt: now, IsMember: isMember}, nil
}

// resolveSubject returns the attendee's user id, looking the tag up when the
// request carries one.
func (s *AttendanceService) resolveSubject(ctx context.Context, req MarkRequest) (string, error) {
	if req.TagID == "" {
		return req.UserID, nil
	}
	if s.Tags == nil {
		return "", errors.New("attendance: no tag resolver configured")
	}
	return s.Tags.ResolveTag(ctx, req.TagID)
}

func (s *AttendanceService) subjectIsMember(ctx context.Context, userID, organizationID string) (bool, error) {
	role, err := s.Members.GetRole(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return role.Valid(), nil
}

// UpdateAttendance corrects the mutable fields of a record. Requires
// CanCorrectAttendance in the event's organization.
func (s *AttendanceService) UpdateAttendance(
	ctx context.Context,
	operatorID string,
	attendanceID string,
	patch AttendancePatch,
) (domain.AttendanceRecord, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("operator_id", operatorID),
		slog.String("attendance_id", attendanceID),
	)
	if operatorID == "" {
		return domain.AttendanceRecord{}, ErrUnauthorized
	}

	// 1. Validate the patch
	if err := validateStruct(patch); err != nil {
		log.Warn("attendance correction rejected", slog.Any("error", err))
		return domain.AttendanceRecord{}, err
	}
	if !patch.ClearLocation {
		if err := validateLocation(patch.Latitude, patch.Longitude); err != nil {
			log.Warn("attendance correction rejected", slog.Any("error", err))
			return domain.AttendanceRecord{}, err
		}
	} else if patch.Latitude != nil || patch.Longitude != nil {
		err := &ValidationError{Field: "clear_location", Reason: "cannot be combined with coordinates"}
		log.Warn("attendance correction rejected", slog.Any("error", err))
		return domain.AttendanceRecord{}, err
	}

	// 2. Authorize against the record's event
	if _, err := s.authorizeCorrection(ctx, operatorID, attendanceID); err != nil {
		logAttendanceFailure(log, "attendance correction rejected", err)
		return domain.AttendanceRecord{}, err
	}

	// 3. Apply and audit in one transaction
	now := s.now()
	var updated domain.AttendanceRecord
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		before, err := tx.Attendance().GetAttendanceByID(ctx, attendanceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get attendance: %w", err)
		}

		after := applyPatch(before, patch)
		after.UpdatedAt = now
		if err := tx.Attendance().UpdateAttendance(ctx, after); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("update attendance: %w", err)
		}

		err = s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditAttendanceCorrected,
			ActorID:    operatorID,
			SubjectID:  before.UserID,
			ResourceID: before.ID,
			Payload: map[string]any{
				"event_id": before.EventID,
				"before":   auditSnapshot(before),
				"after":    auditSnapshot(after),
			},
		})
		if err != nil {
			return err
		}

		updated = after
		return nil
	})
	if err != nil {
		logAttendanceFailure(log, "attendance correction failed", err)
		return domain.AttendanceRecord{}, err
	}

	log.Info("attendance corrected")
	return updated, nil
}

// DeleteAttendance hard-deletes a record. The audit entry keeps a snapshot
// of what was removed and by whom.
func (s *AttendanceService) DeleteAttendance(ctx context.Context, operatorID, attendanceID string) error {
	log := slogx.FromContext(ctx).With(
		slog.String("operator_id", operatorID),
		slog.String("attendance_id", attendanceID),
	)
	if operatorID == "" {
		return ErrUnauthorized
	}

	if _, err := s.authorizeCorrection(ctx, operatorID, attendanceID); err != nil {
		logAttendanceFailure(log, "attendance delete rejected", err)
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		before, err := tx.Attendance().GetAttendanceByID(ctx, attendanceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get attendance: %w", err)
		}

		if err := tx.Attendance().DeleteAttendance(ctx, attendanceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete attendance: %w", err)
		}

		return s.Audit.RecordTx(ctx, tx, Entry{
			Kind:       domain.AuditAttendanceDeleted,
			ActorID:    operatorID,
			SubjectID:  before.UserID,
			ResourceID: before.ID,
			Payload: map[string]any{
				"event_id":   before.EventID,
				"deleted_by": operatorID,
				"record":     auditSnapshot(before),
			},
		})
	})
	if err != nil {
		logAttendanceFailure(log, "attendance delete failed", err)
		return err
	}

	log.Info("attendance deleted")
	return nil
}

// GetEventAttendance returns the attendee list and summary. The percentage
// uses the organization's membership size at query time.
func (s *AttendanceService) GetEventAttendance(ctx context.Context, eventID string) (EventAttendance, error) {
	event, err := s.Events.GetEvent(ctx, eventID)
	if err != nil {
		return EventAttendance{}, err
	}

	records, err := s.Store.Attendance().ListAttendanceByEvent(ctx, eventID)
	if err != nil {
		return EventAttendance{}, fmt.Errorf("list attendance: %w", err)
	}

	orgSize, err := s.Members.CountMembers(ctx, event.OrganizationID)
	if err != nil {
		return EventAttendance{}, err
	}

	if records == nil {
		records = []domain.AttendanceRecord{}
	}
	return EventAttendance{
		Event:   event,
		Summary: domain.Summarize(records, orgSize),
		Records: records,
	}, nil
}

// GetEventAttendanceFor is GetEventAttendance gated on CanTakeAttendance,
// for callers reaching it over the network.
func (s *AttendanceService) GetEventAttendanceFor(ctx context.Context, operatorID, eventID string) (EventAttendance, error) {
	if operatorID == "" {
		return EventAttendance{}, ErrUnauthorized
	}

	event, err := s.Events.GetEvent(ctx, eventID)
	if err != nil {
		return EventAttendance{}, err
	}
	if err := s.Gate.Require(ctx, operatorID, event.OrganizationID, domain.CapabilityTakeAttendance); err != nil {
		return EventAttendance{}, err
	}
	return s.GetEventAttendance(ctx, eventID)
}

// authorizeCorrection loads the record outside any transaction and checks
// the operator against its event's organization.
func (s *AttendanceService) authorizeCorrection(ctx context.Context, operatorID, attendanceID string) (domain.AttendanceRecord, error) {
	record, err := s.Store.Attendance().GetAttendanceByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AttendanceRecord{}, ErrNotFound
		}
		return domain.AttendanceRecord{}, fmt.Errorf("get attendance: %w", err)
	}

	event, err := s.Events.GetEvent(ctx, record.EventID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	if err := s.Gate.Require(ctx, operatorID, event.OrganizationID, domain.CapabilityCorrectAttendance); err != nil {
		return domain.AttendanceRecord{}, err
	}
	return record, nil
}

func applyPatch(r domain.AttendanceRecord, p AttendancePatch) domain.AttendanceRecord {
	if p.ScanMethod != nil {
		r.ScanMethod = domain.ScanMethod(*p.ScanMethod)
	}
	switch {
	case p.ClearLocation:
		r.Location = nil
	case p.Latitude != nil && p.Longitude != nil:
		r.Location = &domain.Location{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	if p.Notes != nil {
		if *p.Notes == "" {
			r.Notes = nil
		} else {
			notes := *p.Notes
			r.Notes = &notes
		}
	}
	return r
}

func auditSnapshot(r domain.AttendanceRecord) map[string]any {
	snap := map[string]any{
		"id":          r.ID,
		"event_id":    r.EventID,
		"user_id":     r.UserID,
		"marked_at":   r.MarkedAt,
		"marked_by":   r.MarkedBy,
		"scan_method": r.ScanMethod,
		"is_member":   r.IsMember,
	}
	if r.Location != nil {
		snap["location_lat"] = r.Location.Latitude
		snap["location_lng"] = r.Location.Longitude
	}
	if r.Notes != nil {
		snap["notes"] = *r.Notes
	}
	return snap
}

func logAttendanceFailure(log *slog.Logger, msg string, err error) {
	if isDomainError(err) {
		log.Warn(msg, slog.Any("error", err))
		return
	}
	log.Error(msg, slog.Any("error", err))
}
