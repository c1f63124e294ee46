package service

import (
	"context"
	"errors"
	"strings"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/repository"
)

// CourseService exposes course lookups. Courses are provisioned out of
// band; this core only reads them.
type CourseService struct {
	courseRepo repository.CourseRepository
}

func NewCourseService(courseRepo repository.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

func (s *CourseService) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	c, err := s.courseRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CourseService) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	c, err := s.courseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}
