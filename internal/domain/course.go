package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is read-only from the attendance core; rows are managed by the
// surrounding administration API.
type Course struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CourseCode string    `gorm:"size:32;uniqueIndex;not null" json:"course_code"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	LecturerID string    `gorm:"size:36;index" json:"lecturer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
