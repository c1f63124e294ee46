package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceRecord marks one student present in one session. Insert-only;
// the composite unique index closes the race between concurrent scans by
// the same student.
type AttendanceRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex:idx_attendance_session_student" json:"session_id"`
	StudentID string    `gorm:"size:36;not null;uniqueIndex:idx_attendance_session_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *AttendanceRecord) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
