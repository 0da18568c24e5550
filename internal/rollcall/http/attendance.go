package http

import (
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type AttendanceHandler struct {
	AttendanceService *service.AttendanceService
}

// HandleMark godoc
//
//	@Summary		Mark attendance
//	@Description	Records that a user attended an event. The attendee is given either by user_id or by the tag_id read from their NFC tag or QR code.
//	@Description	Requires the attendance taker role (or higher) in the event's organization, unless self-scan is enabled and the caller is the attendee.
//	@Tags			Attendance
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.MarkAttendanceRequest	true	"Attendance to record"
//	@Success		201		{object}	rollcallsdk.MarkAttendanceResponse	"Attendance recorded"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse			"Invalid coordinates, scan method or body"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse			"Missing or invalid token"
//	@Failure		403		{object}	rollcallsdk.ErrorResponse			"Not a member or insufficient role"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse			"Event or tag not found"
//	@Failure		409		{object}	rollcallsdk.ErrorResponse			"Already marked"
//	@Failure		422		{object}	rollcallsdk.ErrorResponse			"Event is not accepting attendance now"
//	@Security		BearerAuth
//	@Router			/v1/attendance [post].
func (h *AttendanceHandler) HandleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body rollcallsdk.MarkAttendanceRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		writeInvalidBody(w)
		return
	}

	res, err := h.AttendanceService.MarkAttendance(ctx, httpx.UserIDFromContext(ctx), service.MarkRequest{
		EventID:    body.EventID,
		UserID:     body.UserID,
		TagID:      body.TagID,
		ScanMethod: body.ScanMethod,
		Latitude:   body.Latitude,
		Longitude:  body.Longitude,
		Notes:      body.Notes,
		AsGuest:    body.AsGuest,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, rollcallsdk.MarkAttendanceResponse{
		Success:      true,
		AttendanceID: res.AttendanceID,
		MarkedAt:     res.MarkedAt,
		IsMember:     res.IsMember,
	})
}

// HandleUpdate godoc
//
//	@Summary		Correct an attendance record
//	@Description	Changes the scan method, location or notes. Requires the admin role (or higher) in the event's organization.
//	@Tags			Attendance
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Attendance ID"
//	@Param			request	body		rollcallsdk.UpdateAttendanceRequest	true	"Fields to change"
//	@Success		200		{object}	rollcallsdk.AttendanceRecord		"Updated record"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse			"Invalid patch"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse			"Missing or invalid token"
//	@Failure		403		{object}	rollcallsdk.ErrorResponse			"Insufficient role"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse			"Record not found"
//	@Security		BearerAuth
//	@Router			/v1/attendance/{id} [patch].
func (h *AttendanceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body rollcallsdk.UpdateAttendanceRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		writeInvalidBody(w)
		return
	}

	rec, err := h.AttendanceService.UpdateAttendance(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"), service.AttendancePatch{
		ScanMethod:    body.ScanMethod,
		Latitude:      body.Latitude,
		Longitude:     body.Longitude,
		Notes:         body.Notes,
		ClearLocation: body.ClearLocation,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, attendanceRecord(rec))
}

// HandleDelete godoc
//
//	@Summary		Delete an attendance record
//	@Description	Hard-deletes the record. The audit trail keeps what was removed and by whom. Requires the admin role (or higher).
//	@Tags			Attendance
//	@Produce		json
//	@Param			id	path		string						true	"Attendance ID"
//	@Success		200	{object}	rollcallsdk.SuccessResponse	"Deleted"
//	@Failure		401	{object}	rollcallsdk.ErrorResponse	"Missing or invalid token"
//	@Failure		403	{object}	rollcallsdk.ErrorResponse	"Insufficient role"
//	@Failure		404	{object}	rollcallsdk.ErrorResponse	"Record not found"
//	@Security		BearerAuth
//	@Router			/v1/attendance/{id} [delete].
func (h *AttendanceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.AttendanceService.DeleteAttendance(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rollcallsdk.SuccessResponse{Success: true})
}

// HandleGetEvent godoc
//
//	@Summary		List an event's attendance
//	@Description	Returns every attendee with a summary by scan method and membership. Requires the attendance taker role (or higher).
//	@Tags			Attendance
//	@Produce		json
//	@Param			id	path		string								true	"Event ID"
//	@Success		200	{object}	rollcallsdk.EventAttendanceResponse	"Attendance list"
//	@Failure		401	{object}	rollcallsdk.ErrorResponse			"Missing or invalid token"
//	@Failure		403	{object}	rollcallsdk.ErrorResponse			"Insufficient role"
//	@Failure		404	{object}	rollcallsdk.ErrorResponse			"Event not found"
//	@Security		BearerAuth
//	@Router			/v1/attendance/event/{id} [get].
func (h *AttendanceHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.AttendanceService.GetEventAttendanceFor(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := rollcallsdk.EventAttendanceResponse{
		Event: rollcallsdk.EventInfo{
			ID:             res.Event.ID,
			OrganizationID: res.Event.OrganizationID,
			Name:           res.Event.Name,
			Start:          res.Event.Start,
			End:            res.Event.End,
		},
		Summary: rollcallsdk.AttendanceSummary{
			Total:             res.Summary.Total,
			ByMethod:          make(map[string]int, len(res.Summary.ByMethod)),
			Members:           res.Summary.Members,
			Guests:            res.Summary.Guests,
			OrganizationSize:  res.Summary.OrganizationSize,
			AttendancePercent: res.Summary.AttendancePercent,
		},
		Attendees: make([]rollcallsdk.AttendanceRecord, len(res.Records)),
	}
	for method, n := range res.Summary.ByMethod {
		out.Summary.ByMethod[string(method)] = n
	}
	for i, rec := range res.Records {
		out.Attendees[i] = attendanceRecord(rec)
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

func attendanceRecord(r domain.AttendanceRecord) rollcallsdk.AttendanceRecord {
	out := rollcallsdk.AttendanceRecord{
		ID:         r.ID,
		EventID:    r.EventID,
		UserID:     r.UserID,
		MarkedAt:   r.MarkedAt,
		MarkedBy:   r.MarkedBy,
		ScanMethod: string(r.ScanMethod),
		Notes:      r.Notes,
		IsMember:   r.IsMember,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Location != nil {
		lat, lng := r.Location.Latitude, r.Location.Longitude
		out.Latitude, out.Longitude = &lat, &lng
	}
	return out
}
