package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/geo"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/repository"
	"github.com/classtrack/attendance-service/internal/security"
)

type AttendanceService struct {
	attendanceRepo repository.AttendanceRepository
	sessionRepo    repository.SessionRepository
	courseRepo     repository.CourseRepository
	userRepo       repository.UserRepository
	codec          *TokenCodec
	cipher         *security.FieldCipher
	radiusMeters   float64
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repository.AttendanceRepository,
	sessionRepo repository.SessionRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	codec *TokenCodec,
	cipher *security.FieldCipher,
	radiusMeters float64,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		sessionRepo:    sessionRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		codec:          codec,
		cipher:         cipher,
		radiusMeters:   radiusMeters,
		now:            time.Now,
	}
}

// Scan runs the ordered verification gates for one scanned token and, if
// every gate passes, records attendance exactly once.
//
// The duplicate check deliberately precedes the expiry check: a late
// repeat scan answers "already marked" rather than "expired", which is
// the more useful signal for the common re-scan case.
func (s *AttendanceService) Scan(ctx context.Context, studentID, token string, studentLocation geo.Point) (*domain.AttendanceRecord, error) {
	if studentID == "" {
		observability.RecordScan(ctx, "unauthorized")
		return nil, ErrUnauthorized
	}

	sessionID, err := s.codec.Decode(token)
	if err != nil {
		observability.RecordScan(ctx, "invalid_token")
		return nil, ErrInvalidToken
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordScan(ctx, "session_not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordScan(ctx, "error")
		return nil, err
	}

	var sessionLocation geo.Point
	if err := json.Unmarshal([]byte(session.Geolocation), &sessionLocation); err != nil {
		slog.ErrorContext(ctx, "stored session geolocation unparseable",
			"session_id", session.ID, "error", err)
		observability.RecordScan(ctx, "error")
		return nil, err
	}
	if !geo.WithinRadius(sessionLocation, studentLocation, s.radiusMeters) {
		observability.RecordScan(ctx, "location_rejected")
		return nil, ErrLocationRejected
	}

	if _, err := s.attendanceRepo.Find(ctx, session.ID, studentID); err == nil {
		observability.RecordScan(ctx, "already_marked")
		return nil, ErrAlreadyMarked
	} else if !errors.Is(err, repository.ErrAttendanceNotFound) {
		observability.RecordScan(ctx, "error")
		return nil, err
	}

	if session.Expired(s.now()) {
		observability.RecordScan(ctx, "expired")
		return nil, ErrSessionExpired
	}

	rec := &domain.AttendanceRecord{SessionID: session.ID, StudentID: studentID}
	if err := s.attendanceRepo.Create(ctx, rec); err != nil {
		// Two concurrent scans can both pass the read check; the unique
		// index decides the winner and the loser reports AlreadyMarked.
		if errors.Is(err, repository.ErrDuplicateAttendance) {
			observability.RecordScan(ctx, "already_marked")
			return nil, ErrAlreadyMarked
		}
		observability.RecordScan(ctx, "error")
		return nil, err
	}

	observability.RecordScan(ctx, "marked")
	return rec, nil
}

// RosterEntry is one decrypted line of an attendance report.
type RosterEntry struct {
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	MatNumber string    `json:"mat_number"`
}

// SessionRoster returns the decrypted roster for one session.
func (s *AttendanceService) SessionRoster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	if _, err := s.sessionRepo.FindByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	recs, err := s.attendanceRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.decryptEntries(ctx, recs)
}

// CourseHistory returns every decrypted attendance entry across all of a
// course's sessions, looked up by course code.
func (s *AttendanceService) CourseHistory(ctx context.Context, courseCode string) ([]RosterEntry, error) {
	course, err := s.courseRepo.FindByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	recs, err := s.attendanceRepo.ListBySessionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.decryptEntries(ctx, recs)
}

type StudentSummary struct {
	Course   string `json:"course"`
	Total    int64  `json:"total"`
	Attended int64  `json:"attended"`
	Status   string `json:"status"`
}

// StudentSummary reports attended/total sessions for one student on one
// course.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID, courseCode string) (*StudentSummary, error) {
	course, err := s.courseRepo.FindByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	sessions, err := s.sessionRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	attended, err := s.attendanceRepo.CountByStudentAndSessions(ctx, studentID, ids)
	if err != nil {
		return nil, err
	}
	total := int64(len(sessions))
	return &StudentSummary{
		Course:   course.CourseCode,
		Total:    total,
		Attended: attended,
		Status:   formatRatio(attended, total),
	}, nil
}

func (s *AttendanceService) decryptEntries(ctx context.Context, recs []domain.AttendanceRecord) ([]RosterEntry, error) {
	entries := make([]RosterEntry, 0, len(recs))
	for _, rec := range recs {
		student, err := s.userRepo.FindByID(ctx, rec.StudentID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				slog.WarnContext(ctx, "attendance record references missing student",
					"record_id", rec.ID, "student_id", rec.StudentID)
				continue
			}
			return nil, err
		}
		name, err := s.cipher.Decrypt(student.Name)
		if err != nil {
			return nil, err
		}
		entry := RosterEntry{Date: rec.CreatedAt, Name: name}
		if student.MatNumber != nil {
			mat, err := s.cipher.Decrypt(*student.MatNumber)
			if err != nil {
				return nil, err
			}
			entry.MatNumber = mat
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func formatRatio(attended, total int64) string {
	return strconv.FormatInt(attended, 10) + "/" + strconv.FormatInt(total, 10)
}
