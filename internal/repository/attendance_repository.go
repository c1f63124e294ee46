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
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrDuplicateAttendance = errors.New("attendance already recorded for this session and student")
)

type AttendanceRepository interface {
	// Create inserts a record; a concurrent duplicate for the same
	// (session, student) pair fails with ErrDuplicateAttendance via the
	// composite unique index, so two racing scans can never both land.
	Create(ctx context.Context, rec *domain.AttendanceRecord) error
	Find(ctx context.Context, sessionID, studentID string) (*domain.AttendanceRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.AttendanceRecord, error)
	ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]domain.AttendanceRecord, error)
	CountByStudentAndSessions(ctx context.Context, studentID string, sessionIDs []string) (int64, error)
	ListBySessionAndDay(ctx context.Context, sessionID string, day time.Time) ([]domain.AttendanceRecord, error)
}

type GormAttendanceRepository struct{ db *gorm.DB }

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "attendance", "create", "conflict")
			return ErrDuplicateAttendance
		}
		observability.RecordRepositoryOperation(ctx, "attendance", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "create", "success")
	return nil
}

func (r *GormAttendanceRepository) Find(ctx context.Context, sessionID, studentID string) (*domain.AttendanceRecord, error) {
	var rec domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "attendance", "find", "not_found")
			return nil, ErrAttendanceNotFound
		}
		observability.RecordRepositoryOperation(ctx, "attendance", "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "find", "success")
	return &rec, nil
}

func (r *GormAttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AttendanceRecord, error) {
	var recs []domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session", "success")
	return recs, nil
}

func (r *GormAttendanceRepository) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]domain.AttendanceRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var recs []domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session_ids", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session_ids", "success")
	return recs, nil
}

func (r *GormAttendanceRepository) CountByStudentAndSessions(ctx context.Context, studentID string, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.AttendanceRecord{}).
		Where("student_id = ? AND session_id IN ?", studentID, sessionIDs).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "attendance", "count_by_student", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "count_by_student", "success")
	return count, nil
}

func (r *GormAttendanceRepository) ListBySessionAndDay(ctx context.Context, sessionID string, day time.Time) ([]domain.AttendanceRecord, error) {
	start := domain.DayOf(day)
	end := start.Add(24 * time.Hour)
	var recs []domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND created_at >= ? AND created_at < ?", sessionID, start, end).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session_and_day", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "attendance", "list_by_session_and_day", "success")
	return recs, nil
}
