package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/classtrack/attendance-service/internal/domain"
)

func TestCreateUserEncryptsAtRest(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedStudent(t, "ada lovelace", "Ada@Uni.EDU", "csc/001")

	if u.Email == "ada@uni.edu" || strings.Contains(u.Email, "uni.edu") {
		t.Fatal("email stored in plaintext")
	}
	if u.Name == "Ada Lovelace" {
		t.Fatal("name stored in plaintext")
	}
	if u.MatNumber == nil || *u.MatNumber == "CSC/001" {
		t.Fatal("mat number stored in plaintext")
	}
	if u.Password == "pass-word-123" {
		t.Fatal("password stored in plaintext")
	}

	// Lookups go through the normalized digest regardless of input case.
	profile, err := env.userSvc.FindByMatNumber(context.Background(), "CsC/001")
	if err != nil {
		t.Fatalf("find by mat number: %v", err)
	}
	if profile.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", profile.Name)
	}
	if profile.Email != "ada@uni.edu" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
}

func TestCreateUserRejectsPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userSvc.Create(context.Background(), CreateUserInput{
		Name:            "ada lovelace",
		Email:           "ada@uni.edu",
		Password:        "one",
		ConfirmPassword: "two",
		Role:            domain.RoleStudent,
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")
	_, err := env.userSvc.Create(context.Background(), CreateUserInput{
		Name:            "impostor",
		Email:           "ADA@uni.edu",
		Password:        "pass-word-123",
		ConfirmPassword: "pass-word-123",
		Role:            domain.RoleStudent,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginIssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")

	res, err := env.userSvc.Login(context.Background(), "Ada@Uni.edu", "pass-word-123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if res.Role != domain.RoleStudent {
		t.Fatalf("unexpected role %q", res.Role)
	}

	refreshed, err := env.userSvc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected refreshed access token")
	}
}

func TestLoginWrongPasswordAndUnknownEmailIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")

	_, errWrong := env.userSvc.Login(context.Background(), "ada@uni.edu", "bad-password")
	_, errUnknown := env.userSvc.Login(context.Background(), "ghost@uni.edu", "whatever")
	if !errors.Is(errWrong, ErrInvalidCredentials) || !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrong, errUnknown)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")

	if err := env.userSvc.RequestPasswordReset(context.Background(), "ada@uni.edu"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	stored, err := env.users.FindByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.ResetCode == nil || len(*stored.ResetCode) != 6 {
		t.Fatalf("expected 6-digit reset code, got %+v", stored.ResetCode)
	}
	if !stored.MustChangePassword {
		t.Fatal("expected must_change_password set")
	}

	if err := env.userSvc.ResetPassword(context.Background(), "ada@uni.edu", "000000", "new-password-1", "new-password-1"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode for wrong code, got %v", err)
	}

	if err := env.userSvc.ResetPassword(context.Background(), "ada@uni.edu", *stored.ResetCode, "new-password-1", "new-password-1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := env.userSvc.Login(context.Background(), "ada@uni.edu", "pass-word-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	res, err := env.userSvc.Login(context.Background(), "ada@uni.edu", "new-password-1")
	if err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if res.MustChangePassword {
		t.Fatal("must_change_password should be cleared after reset")
	}
}

func TestResetUnknownEmailIsSilentSuccess(t *testing.T) {
	env := newTestEnv(t)
	if err := env.userSvc.RequestPasswordReset(context.Background(), "ghost@uni.edu"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")

	err := env.userSvc.ChangePassword(context.Background(), student.ID, "wrong", "next-password-1", "next-password-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := env.userSvc.ChangePassword(context.Background(), student.ID, "pass-word-123", "next-password-1", "next-password-1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := env.userSvc.Login(context.Background(), "ada@uni.edu", "next-password-1"); err != nil {
		t.Fatalf("login after change: %v", err)
	}
}

func TestResetCodeExpires(t *testing.T) {
	env := newTestEnv(t)
	student := env.seedStudent(t, "ada lovelace", "ada@uni.edu", "csc/001")

	if err := env.userSvc.RequestPasswordReset(context.Background(), "ada@uni.edu"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	stored, err := env.users.FindByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	expired := time.Now().Add(-time.Minute)
	stored.ResetCodeExpiresAt = &expired
	if err := env.users.Update(context.Background(), stored); err != nil {
		t.Fatalf("expire code: %v", err)
	}

	err = env.userSvc.ResetPassword(context.Background(), "ada@uni.edu", *stored.ResetCode, "new-password-1", "new-password-1")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode for expired code, got %v", err)
	}
}
