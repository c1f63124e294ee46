package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/geo"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/repository"
)

type SessionService struct {
	sessionRepo repository.SessionRepository
	courseRepo  repository.CourseRepository
	codec       *TokenCodec
	sessionTTL  time.Duration
	now         func() time.Time
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	courseRepo repository.CourseRepository,
	codec *TokenCodec,
	sessionTTL time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		courseRepo:  courseRepo,
		codec:       codec,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

type IssuedSession struct {
	SessionID string    `json:"session_id"`
	QRData    string    `json:"qr_data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issue creates a time-boxed, geo-tagged session for a course and returns
// the encrypted QR token. The lecturer identity is supplied by the caller
// after the role gate; the service only records it.
func (s *SessionService) Issue(ctx context.Context, courseID, lecturerID string, location geo.Point) (*IssuedSession, error) {
	if lecturerID == "" {
		observability.RecordSessionIssuance(ctx, "unauthorized")
		return nil, ErrUnauthorized
	}

	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			observability.RecordSessionIssuance(ctx, "course_not_found")
			return nil, ErrCourseNotFound
		}
		observability.RecordSessionIssuance(ctx, "error")
		return nil, err
	}

	now := s.now()
	// Advisory pre-check for a friendlier error; the unique index on
	// (course_id, session_day) is what actually prevents the race.
	if _, err := s.sessionRepo.FindByCourseAndDay(ctx, courseID, now); err == nil {
		observability.RecordSessionIssuance(ctx, "duplicate")
		return nil, ErrDuplicateSession
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		observability.RecordSessionIssuance(ctx, "error")
		return nil, err
	}

	locJSON, err := json.Marshal(location)
	if err != nil {
		return nil, fmt.Errorf("serialize geolocation: %w", err)
	}

	session := &domain.LectureSession{
		CourseID:    courseID,
		LecturerID:  lecturerID,
		Geolocation: string(locJSON),
		SessionDay:  domain.DayOf(now),
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			observability.RecordSessionIssuance(ctx, "duplicate")
			return nil, ErrDuplicateSession
		}
		observability.RecordSessionIssuance(ctx, "error")
		return nil, err
	}

	qrData, err := s.codec.Encode(session.ID)
	if err != nil {
		observability.RecordSessionIssuance(ctx, "error")
		return nil, fmt.Errorf("encode session token: %w", err)
	}

	observability.RecordSessionIssuance(ctx, "issued")
	return &IssuedSession{SessionID: session.ID, QRData: qrData, ExpiresAt: session.ExpiresAt}, nil
}

// RenderQR re-encodes the session token as a QR PNG for display. The
// token string remains the canonical output; this is a convenience for
// lecterns without a client-side renderer.
func (s *SessionService) RenderQR(ctx context.Context, sessionID string, size int) ([]byte, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	token, err := s.codec.Encode(session.ID)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

// FindByCourseAndDate returns the session for a course on a given day, if
// one exists.
func (s *SessionService) FindByCourseAndDate(ctx context.Context, courseID string, day time.Time) (*domain.LectureSession, error) {
	session, err := s.sessionRepo.FindByCourseAndDay(ctx, courseID, day)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
