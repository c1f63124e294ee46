package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	MatNumber       string      `json:"mat_number,omitempty"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirm_password"`
	Role            domain.Role `json:"role"`
}

// Create registers a new user. Mounted behind the admin role gate.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Create(r.Context(), service.CreateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		MatNumber:       req.MatNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.created", "user_id", u.ID, "role", u.Role)
	response.JSON(w, r, http.StatusCreated, map[string]string{"id": u.ID})
}

// Me returns the decrypted profile of the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}
	profile, err := h.users.Profile(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

// ByMatNumber resolves a student by matriculation number.
func (h *UserHandler) ByMatNumber(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.FindByMatNumber(r.Context(), chi.URLParam(r, "mat_number"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}
