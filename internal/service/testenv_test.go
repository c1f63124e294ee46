package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/geo"
	"github.com/classtrack/attendance-service/internal/repository"
	"github.com/classtrack/attendance-service/internal/security"
)

type testEnv struct {
	db         *gorm.DB
	cipher     *security.FieldCipher
	indexer    *security.Indexer
	codec      *TokenCodec
	users      repository.UserRepository
	courses    repository.CourseRepository
	sessions   repository.SessionRepository
	attendance repository.AttendanceRepository

	sessionSvc    *SessionService
	attendanceSvc *AttendanceService
	userSvc       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.LectureSession{},
		&domain.AttendanceRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cipher, err := security.NewFieldCipher(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	indexer := security.NewIndexer([]byte("test-hmac-key"))
	codec := NewTokenCodec(cipher)
	jwtMgr := security.NewJWTManager("attendance-service", "attendance-api",
		"abcdefghijklmnopqrstuvwxyz123456", "abcdefghijklmnopqrstuvwxyz654321")

	env := &testEnv{
		db:         db,
		cipher:     cipher,
		indexer:    indexer,
		codec:      codec,
		users:      repository.NewUserRepository(db),
		courses:    repository.NewCourseRepository(db),
		sessions:   repository.NewSessionRepository(db),
		attendance: repository.NewAttendanceRepository(db),
	}
	env.sessionSvc = NewSessionService(env.sessions, env.courses, codec, time.Hour)
	env.attendanceSvc = NewAttendanceService(env.attendance, env.sessions, env.courses, env.users, codec, cipher, 1000)
	env.userSvc = NewUserService(env.users, cipher, indexer, jwtMgr, LogMailer{}, 15*time.Minute, 720*time.Hour)
	return env
}

func (e *testEnv) seedCourse(t *testing.T, code string) *domain.Course {
	t.Helper()
	c := &domain.Course{CourseCode: code, Title: "Test Course", LecturerID: "lecturer-1"}
	if err := e.courses.Create(context.Background(), c); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func (e *testEnv) seedStudent(t *testing.T, name, email, matNumber string) *domain.User {
	t.Helper()
	u, err := e.userSvc.Create(context.Background(), CreateUserInput{
		Name:            name,
		Email:           email,
		MatNumber:       matNumber,
		Password:        "pass-word-123",
		ConfirmPassword: "pass-word-123",
		Role:            domain.RoleStudent,
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return u
}

func (e *testEnv) issueSession(t *testing.T, courseID string, at geo.Point) *IssuedSession {
	t.Helper()
	issued, err := e.sessionSvc.Issue(context.Background(), courseID, "lecturer-1", at)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return issued
}
