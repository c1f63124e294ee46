package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/service"
)

type errorMapping struct {
	status int
	code   string
}

var serviceErrorMappings = map[error]errorMapping{
	service.ErrUnauthorized:       {http.StatusUnauthorized, "UNAUTHORIZED"},
	service.ErrCourseNotFound:     {http.StatusNotFound, "COURSE_NOT_FOUND"},
	service.ErrSessionNotFound:    {http.StatusNotFound, "SESSION_NOT_FOUND"},
	service.ErrInvalidToken:       {http.StatusUnprocessableEntity, "INVALID_TOKEN"},
	service.ErrLocationRejected:   {http.StatusUnauthorized, "LOCATION_REJECTED"},
	service.ErrAlreadyMarked:      {http.StatusConflict, "ALREADY_MARKED"},
	service.ErrSessionExpired:     {http.StatusUnauthorized, "SESSION_EXPIRED"},
	service.ErrDuplicateSession:   {http.StatusConflict, "DUPLICATE_SESSION"},
	service.ErrUserNotFound:       {http.StatusNotFound, "USER_NOT_FOUND"},
	service.ErrEmailTaken:         {http.StatusConflict, "EMAIL_TAKEN"},
	service.ErrInvalidCredentials: {http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	service.ErrPasswordMismatch:   {http.StatusBadRequest, "PASSWORD_MISMATCH"},
	service.ErrInvalidResetCode:   {http.StatusBadRequest, "INVALID_RESET_CODE"},
}

// writeServiceError maps known service sentinels to their status and
// code; anything else becomes an opaque 500 with full slog context.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for sentinel, m := range serviceErrorMappings {
		if errors.Is(err, sentinel) {
			response.Error(w, r, m.status, m.code, sentinel.Error(), nil)
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
}
