package service

import "errors"

// Verification and issuance failures, each mapped to a distinct
// client-visible status by the HTTP layer. None of them crash the
// process; anything outside this taxonomy is reported as a generic
// failure and logged with full context.
var (
	ErrUnauthorized     = errors.New("caller identity missing")
	ErrCourseNotFound   = errors.New("course not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidToken     = errors.New("invalid or undecryptable token")
	ErrLocationRejected = errors.New("location outside allowed radius")
	ErrAlreadyMarked    = errors.New("attendance already marked")
	ErrSessionExpired   = errors.New("session expired")
	ErrDuplicateSession = errors.New("a session for this course already exists today")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
)
