package handler

import (
	"encoding/json"
	"net/http"

	"github.com/classtrack/attendance-service/internal/http/middleware"
	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/security"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return false
	}
	return true
}

func callerClaims(w http.ResponseWriter, r *http.Request) (*security.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return nil, false
	}
	return claims, true
}
