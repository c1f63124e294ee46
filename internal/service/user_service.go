package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/repository"
	"github.com/classtrack/attendance-service/internal/security"
)

const resetCodeTTL = 15 * time.Minute

// UserService manages identities whose PII is encrypted at rest. Every
// equality lookup goes through the deterministic HMAC columns; plaintext
// never reaches the store.
type UserService struct {
	userRepo repository.UserRepository
	cipher   *security.FieldCipher
	indexer  *security.Indexer
	jwtMgr   *security.JWTManager
	mailer   Mailer

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewUserService(
	userRepo repository.UserRepository,
	cipher *security.FieldCipher,
	indexer *security.Indexer,
	jwtMgr *security.JWTManager,
	mailer Mailer,
	accessTTL, refreshTTL time.Duration,
) *UserService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &UserService{
		userRepo:   userRepo,
		cipher:     cipher,
		indexer:    indexer,
		jwtMgr:     jwtMgr,
		mailer:     mailer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type CreateUserInput struct {
	Name            string
	Email           string
	MatNumber       string
	Password        string
	ConfirmPassword string
	Role            domain.Role
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := titleCaseName(in.Name)

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	encName, err := s.cipher.Encrypt(name)
	if err != nil {
		return nil, err
	}
	encEmail, err := s.cipher.Encrypt(email)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:     encName,
		Email:    encEmail,
		EmailMac: s.indexer.Digest(email),
		Password: hash,
		Role:     in.Role,
	}
	if mat := strings.ToUpper(strings.TrimSpace(in.MatNumber)); mat != "" {
		encMat, err := s.cipher.Encrypt(mat)
		if err != nil {
			return nil, err
		}
		mac := s.indexer.Digest(mat)
		u.MatNumber = &encMat
		u.MatNumberMac = &mac
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

type LoginResult struct {
	UserID             string      `json:"user_id"`
	Role               domain.Role `json:"role"`
	AccessToken        string      `json:"access_token"`
	RefreshToken       string      `json:"refresh_token"`
	MustChangePassword bool        `json:"must_change_password"`
}

// Login resolves the user by email digest and verifies the password with
// a constant-time comparison. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(password, u.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	access, err := s.jwtMgr.SignAccessToken(u.ID, string(u.Role), s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtMgr.SignRefreshToken(u.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID:             u.ID,
		Role:               u.Role,
		AccessToken:        access,
		RefreshToken:       refresh,
		MustChangePassword: u.MustChangePassword,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	access, err := s.jwtMgr.SignAccessToken(u.ID, string(u.Role), s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID:             u.ID,
		Role:               u.Role,
		AccessToken:        access,
		RefreshToken:       refreshToken,
		MustChangePassword: u.MustChangePassword,
	}, nil
}

// RequestPasswordReset issues a 6-digit reset code and hands delivery to
// the mailer on a separate goroutine; the request path never waits on
// email. An unknown email is a silent success so the endpoint cannot be
// used to probe for accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetCodeTTL)
	u.ResetCode = &code
	u.ResetCodeExpiresAt = &expires
	u.MustChangePassword = true
	if err := s.userRepo.Update(ctx, u); err != nil {
		return err
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendResetCode(sendCtx, normalized, code); err != nil {
			slog.Error("reset code delivery failed", "error", err)
		}
	}()
	return nil
}

// ResetPassword completes the reset flow with the emailed code.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if u.ResetCode == nil || *u.ResetCode != code {
		return ErrInvalidResetCode
	}
	if u.ResetCodeExpiresAt == nil || time.Now().After(*u.ResetCodeExpiresAt) {
		return ErrInvalidResetCode
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ResetCode = nil
	u.ResetCodeExpiresAt = nil
	u.MustChangePassword = false
	return s.userRepo.Update(ctx, u)
}

// ChangePassword rotates the password of an authenticated user.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	ok, err := security.VerifyPassword(currentPassword, u.Password)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.MustChangePassword = false
	return s.userRepo.Update(ctx, u)
}

type UserProfile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	MatNumber string      `json:"mat_number,omitempty"`
	Role      domain.Role `json:"role"`
}

// Profile returns the decrypted identity of one user.
func (s *UserService) Profile(ctx context.Context, userID string) (*UserProfile, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.decryptProfile(u)
}

// FindByMatNumber resolves a student by matriculation number via the
// deterministic digest.
func (s *UserService) FindByMatNumber(ctx context.Context, matNumber string) (*UserProfile, error) {
	mac := s.indexer.Digest(strings.ToUpper(strings.TrimSpace(matNumber)))
	u, err := s.userRepo.FindByMatNumberMac(ctx, mac)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.decryptProfile(u)
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	mac := s.indexer.Digest(strings.ToLower(strings.TrimSpace(email)))
	u, err := s.userRepo.FindByEmailMac(ctx, mac)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) decryptProfile(u *domain.User) (*UserProfile, error) {
	name, err := s.cipher.Decrypt(u.Name)
	if err != nil {
		return nil, err
	}
	email, err := s.cipher.Decrypt(u.Email)
	if err != nil {
		return nil, err
	}
	p := &UserProfile{ID: u.ID, Name: name, Email: email, Role: u.Role}
	if u.MatNumber != nil {
		mat, err := s.cipher.Decrypt(*u.MatNumber)
		if err != nil {
			return nil, err
		}
		p.MatNumber = mat
	}
	return p, nil
}

// titleCaseName upper-cases the first letter of each space-separated part
// of a name, matching how names are normalized before encryption.
func titleCaseName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		r := []rune(p)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
