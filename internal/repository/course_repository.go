package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/observability"
)

var ErrCourseNotFound = errors.New("course not found")

// CourseRepository is read-only from the attendance core; Create exists
// for seeding and tests.
type CourseRepository interface {
	Create(ctx context.Context, c *domain.Course) error
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	FindByCode(ctx context.Context, code string) (*domain.Course, error)
}

type GormCourseRepository struct{ db *gorm.DB }

func NewCourseRepository(db *gorm.DB) CourseRepository { return &GormCourseRepository{db: db} }

func (r *GormCourseRepository) Create(ctx context.Context, c *domain.Course) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "course", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "course", "create", "success")
	return nil
}

func (r *GormCourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	return r.findOne(ctx, "find_by_id", "id = ?", id)
}

// FindByCode looks a course up by its upper-cased code.
func (r *GormCourseRepository) FindByCode(ctx context.Context, code string) (*domain.Course, error) {
	return r.findOne(ctx, "find_by_code", "course_code = ?", code)
}

func (r *GormCourseRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.Course, error) {
	var c domain.Course
	err := r.db.WithContext(ctx).Where(query, arg).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "course", op, "not_found")
			return nil, ErrCourseNotFound
		}
		observability.RecordRepositoryOperation(ctx, "course", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "course", op, "success")
	return &c, nil
}
