package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleLecturer Role = "LECTURER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// User stores identity fields encrypted at rest. The *Mac columns hold
// deterministic HMAC digests of the normalized plaintext and are the only
// columns equality lookups may use; the ciphertexts are IV-randomized and
// never comparable.
type User struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Name               string     `gorm:"size:512;not null" json:"-"`
	Email              string     `gorm:"size:512;not null" json:"-"`
	EmailMac           string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	MatNumber          *string    `gorm:"size:512" json:"-"`
	MatNumberMac       *string    `gorm:"size:64;uniqueIndex" json:"-"`
	Password           string     `gorm:"size:256;not null" json:"-"`
	Role               Role       `gorm:"size:16;index;not null" json:"role"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"must_change_password"`
	ResetCode          *string    `gorm:"size:16" json:"-"`
	ResetCodeExpiresAt *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
