package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/observability"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already exists for this course and day")
)

type SessionRepository interface {
	// Create inserts a session; a second session for the same course and
	// calendar day fails with ErrDuplicateSession via the composite
	// unique index.
	Create(ctx context.Context, s *domain.LectureSession) error
	FindByID(ctx context.Context, id string) (*domain.LectureSession, error)
	FindByCourseAndDay(ctx context.Context, courseID string, day time.Time) (*domain.LectureSession, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.LectureSession, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.LectureSession) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "session", "create", "conflict")
			return ErrDuplicateSession
		}
		observability.RecordRepositoryOperation(ctx, "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id string) (*domain.LectureSession, error) {
	var s domain.LectureSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "success")
	return &s, nil
}

func (r *GormSessionRepository) FindByCourseAndDay(ctx context.Context, courseID string, day time.Time) (*domain.LectureSession, error) {
	var s domain.LectureSession
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND session_day = ?", courseID, domain.DayOf(day)).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "find_by_course_and_day", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "find_by_course_and_day", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "find_by_course_and_day", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.LectureSession, error) {
	var sessions []domain.LectureSession
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "list_by_course", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "list_by_course", "success")
	return sessions, nil
}
