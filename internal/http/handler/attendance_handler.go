package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/attendance-service/internal/geo"
	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/service"
)

type AttendanceHandler struct {
	attendance *service.AttendanceService
}

func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type scanRequest struct {
	QRData      string    `json:"qr_data"`
	Geolocation geo.Point `json:"geolocation"`
}

// Scan verifies a scanned token and records attendance for the
// authenticated student.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.attendance.Scan(r.Context(), claims.Subject, req.QRData, req.Geolocation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "attendance.marked",
		"session_id", record.SessionID,
		"student_id", claims.Subject,
	)
	response.JSON(w, r, http.StatusCreated, map[string]any{"record": record})
}

// SessionRoster returns the decrypted roster for one session.
func (h *AttendanceHandler) SessionRoster(w http.ResponseWriter, r *http.Request) {
	entries, err := h.attendance.SessionRoster(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, entries)
}

// CourseHistory returns every attendance entry recorded for a course.
func (h *AttendanceHandler) CourseHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.attendance.CourseHistory(r.Context(), chi.URLParam(r, "course_code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, entries)
}

// MySummary reports the authenticated student's attended/total ratio for
// one course.
func (h *AttendanceHandler) MySummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}
	summary, err := h.attendance.StudentSummary(r.Context(), claims.Subject, chi.URLParam(r, "course_code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}
