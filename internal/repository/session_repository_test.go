package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classtrack/attendance-service/internal/domain"
)

func TestSessionRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t))

	now := time.Now()
	s := &domain.LectureSession{
		CourseID:    "course-1",
		LecturerID:  "lecturer-1",
		Geolocation: `{"latitude":6.52,"longitude":3.37}`,
		SessionDay:  domain.DayOf(now),
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected generated session id")
	}

	got, err := repo.FindByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.CourseID != "course-1" {
		t.Fatalf("unexpected course id %q", got.CourseID)
	}

	got, err = repo.FindByCourseAndDay(ctx, "course-1", now)
	if err != nil {
		t.Fatalf("find by course and day: %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("unexpected session %q", got.ID)
	}
}

func TestSessionRepositoryFindMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t))

	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := repo.FindByCourseAndDay(ctx, "nope", time.Now()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepositorySameDayConstraint(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t))

	now := time.Now()
	first := &domain.LectureSession{
		CourseID:    "course-1",
		LecturerID:  "lecturer-1",
		Geolocation: "{}",
		SessionDay:  domain.DayOf(now),
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := &domain.LectureSession{
		CourseID:    "course-1",
		LecturerID:  "lecturer-2",
		Geolocation: "{}",
		SessionDay:  domain.DayOf(now),
		ExpiresAt:   now.Add(2 * time.Hour),
	}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	// A different course on the same day is fine.
	other := &domain.LectureSession{
		CourseID:    "course-2",
		LecturerID:  "lecturer-1",
		Geolocation: "{}",
		SessionDay:  domain.DayOf(now),
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create other course: %v", err)
	}

	// Same course on the next day is fine too.
	tomorrow := &domain.LectureSession{
		CourseID:    "course-1",
		LecturerID:  "lecturer-1",
		Geolocation: "{}",
		SessionDay:  domain.DayOf(now.Add(24 * time.Hour)),
		ExpiresAt:   now.Add(25 * time.Hour),
	}
	if err := repo.Create(ctx, tomorrow); err != nil {
		t.Fatalf("create next day: %v", err)
	}
}

func TestSessionRepositoryListByCourse(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newTestDB(t))

	now := time.Now()
	for i := 0; i < 3; i++ {
		s := &domain.LectureSession{
			CourseID:    "course-1",
			LecturerID:  "lecturer-1",
			Geolocation: "{}",
			SessionDay:  domain.DayOf(now.Add(time.Duration(i) * 24 * time.Hour)),
			ExpiresAt:   now.Add(time.Duration(i)*24*time.Hour + time.Hour),
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	sessions, err := repo.ListByCourse(ctx, "course-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
}
