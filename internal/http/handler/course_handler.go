package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/service"
)

type CourseHandler struct {
	courses *service.CourseService
}

func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

func (h *CourseHandler) ByCode(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.GetByCode(r.Context(), chi.URLParam(r, "course_code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, course)
}
