package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LectureSession is a time-boxed, geo-tagged attendance window. The
// composite unique index on (course_id, session_day) is the authoritative
// one-session-per-course-per-day guard; the service-level lookup only
// exists to give a friendlier error before the insert races.
//
// Sessions are never deleted by the core; their lifecycle ends when
// ExpiresAt passes.
type LectureSession struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CourseID    string    `gorm:"size:36;not null;uniqueIndex:idx_sessions_course_day" json:"course_id"`
	LecturerID  string    `gorm:"size:36;index;not null" json:"lecturer_id"`
	Geolocation string    `gorm:"size:256;not null" json:"-"`
	SessionDay  time.Time `gorm:"not null;uniqueIndex:idx_sessions_course_day" json:"session_day"`
	ExpiresAt   time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *LectureSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the session window has closed at t.
func (s *LectureSession) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// DayOf truncates t to the start of its calendar day in t's location.
// SessionDay always stores this truncated value so the unique index and
// the same-day lookup agree on day boundaries.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
