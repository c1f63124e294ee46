package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/attendance-service/internal/geo"
	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionRequest struct {
	CourseID    string    `json:"course_id"`
	Geolocation geo.Point `json:"geolocation"`
}

// Create opens today's session for a course and returns the encrypted QR
// token. Mounted behind the lecturer role gate.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issued, err := h.sessions.Issue(r.Context(), req.CourseID, claims.Subject, req.Geolocation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "session.issued",
		"session_id", issued.SessionID,
		"course_id", req.CourseID,
		"lecturer_id", claims.Subject,
	)
	response.JSON(w, r, http.StatusCreated, issued)
}

// QRImage serves the session token as a QR PNG.
func (h *SessionHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "size must be between 64 and 1024", nil)
			return
		}
		size = parsed
	}

	png, err := h.sessions.RenderQR(r.Context(), sessionID, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
