package remove

import (
	"context"
	"errors"
	"testing"
	"time"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/repository"
)

func seedCourse(t *testing.T, repo *repository.MemoryRepository, batches []coodecraft.Batch) string {
	t.Helper()

	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	id, err := repo.InsertCourse(context.Background(), coodecraft.Course{
		Title:     "Python Basics",
		Duration:  "4 weeks",
		Level:     coodecraft.LevelBeginner,
		Features:  []string{},
		IsActive:  true,
		Batches:   batches,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	return id
}

func TestRemoveRefusesActiveEnrollment(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := seedCourse(t, repo, []coodecraft.Batch{
		{Status: coodecraft.BatchOngoing, EnrolledStudents: 5, Seats: 30},
	})

	err := NewRemover(repo).Remove(context.Background(), id)

	var conflictErr coodecraft.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	if _, err := repo.GetCourse(context.Background(), id); err != nil {
		t.Errorf("expected course to survive the refused delete, got %v", err)
	}
}

func TestRemovePermitsAfterEnrollmentClears(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := seedCourse(t, repo, []coodecraft.Batch{
		{Status: coodecraft.BatchOngoing, EnrolledStudents: 5, Seats: 30},
	})
	remover := NewRemover(repo)

	if err := remover.Remove(context.Background(), id); err == nil {
		t.Fatal("expected the first delete to be refused")
	}

	course, err := repo.GetCourse(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to fetch course: %v", err)
	}
	course.Batches[0].EnrolledStudents = 0
	if err := repo.ReplaceCourse(context.Background(), id, course); err != nil {
		t.Fatalf("failed to clear enrollment: %v", err)
	}

	if err := remover.Remove(context.Background(), id); err != nil {
		t.Fatalf("expected delete to succeed once enrollment cleared, got %v", err)
	}

	var notFoundErr coodecraft.NotFoundError
	if _, err := repo.GetCourse(context.Background(), id); !errors.As(err, &notFoundErr) {
		t.Errorf("expected course to be gone, got %v", err)
	}
}

func TestRemoveUnknownCourse(t *testing.T) {
	repo := repository.NewMemoryRepository()

	err := NewRemover(repo).Remove(context.Background(), "missing")

	var notFoundErr coodecraft.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeletableMatrix(t *testing.T) {
	tests := []struct {
		name    string
		batches []coodecraft.Batch
		want    bool
	}{
		{"no batches", nil, true},
		{"upcoming with enrollment", []coodecraft.Batch{{Status: coodecraft.BatchUpcoming, EnrolledStudents: 10}}, true},
		{"ongoing without enrollment", []coodecraft.Batch{{Status: coodecraft.BatchOngoing, EnrolledStudents: 0}}, true},
		{"ongoing with enrollment", []coodecraft.Batch{{Status: coodecraft.BatchOngoing, EnrolledStudents: 1}}, false},
		{"completed with enrollment", []coodecraft.Batch{{Status: coodecraft.BatchCompleted, EnrolledStudents: 20}}, true},
		{"cancelled with enrollment", []coodecraft.Batch{{Status: coodecraft.BatchCancelled, EnrolledStudents: 20}}, true},
		{"mixed", []coodecraft.Batch{
			{Status: coodecraft.BatchCompleted, EnrolledStudents: 20},
			{Status: coodecraft.BatchOngoing, EnrolledStudents: 2},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := coodecraft.Course{Title: "t", Batches: tt.batches}
			if got := course.Deletable(); got != tt.want {
				t.Errorf("expected Deletable() == %v, got %v", tt.want, got)
			}
		})
	}
}
