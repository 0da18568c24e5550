package rollcallsdk

import (
	"context"
	"net/http"
	"net/url"
)

// MarkAttendance records an attendee for an event.
func (s *Session) MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (*MarkAttendanceResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/attendance", req)
	if err != nil {
		return nil, err
	}

	var out MarkAttendanceResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAttendance corrects an attendance record.
func (s *Session) UpdateAttendance(
	ctx context.Context,
	attendanceID string,
	req UpdateAttendanceRequest,
) (*AttendanceRecord, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/attendance/"+url.PathEscape(attendanceID), req)
	if err != nil {
		return nil, err
	}

	var out AttendanceRecord
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAttendance removes an attendance record.
func (s *Session) DeleteAttendance(ctx context.Context, attendanceID string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/attendance/"+url.PathEscape(attendanceID), nil)
	if err != nil {
		return err
	}

	var out SuccessResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// GetEventAttendance lists an event's attendees with a summary.
func (s *Session) GetEventAttendance(ctx context.Context, eventID string) (*EventAttendanceResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/attendance/event/"+url.PathEscape(eventID), nil)
	if err != nil {
		return nil, err
	}

	var out EventAttendanceResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
