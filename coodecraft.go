package coodecraft

import (
	"context"
	"time"
)

// Domain types are defined in this file

// Batch statuses a course offering can be in.
const (
	BatchUpcoming  = "upcoming"
	BatchOngoing   = "ongoing"
	BatchCompleted = "completed"
	BatchCancelled = "cancelled"
)

// Course levels shown in the catalog.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Batch is one scheduled run of a Course. Batches are embedded in their
// course document and have no identity of their own.
type Batch struct {
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	Seats            int       `json:"seats"`
	EnrolledStudents int       `json:"enrolledStudents"`
	Status           string    `json:"status"`
	BatchCode        string    `json:"batchCode"`
}

// Course is a catalog entry. ID is assigned by storage and empty until the
// course is persisted. Dates marshal as RFC 3339 text, which is the
// serialization contract clients rely on.
type Course struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	ImageID     string    `json:"imageId"`
	Duration    string    `json:"duration"`
	Level       string    `json:"level"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"isActive"`
	Batches     []Batch   `json:"batches"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Deletable reports whether the course may be removed from the catalog.
// A course with an ongoing batch that still has enrolled students must not
// be deleted out from under those students.
func (c Course) Deletable() bool {
	for _, b := range c.Batches {
		if b.Status == BatchOngoing && b.EnrolledStudents > 0 {
			return false
		}
	}
	return true
}

// Repository is the persistence contract for courses. Implementations own
// connection lifecycle and timeouts; a single update or delete by identifier
// is atomic, but no multi-course operation is.
type Repository interface {
	// ListCourses returns every persisted course, newest createdAt first.
	ListCourses(ctx context.Context) ([]Course, error)
	// GetCourse returns the course with the given identifier.
	GetCourse(ctx context.Context, id string) (Course, error)
	// InsertCourse persists a new course and returns its assigned identifier.
	InsertCourse(ctx context.Context, course Course) (string, error)
	// ReplaceCourse overwrites the stored field set of an existing course.
	// CreatedAt is preserved; everything else comes from the argument.
	ReplaceCourse(ctx context.Context, id string, course Course) error
	// DeleteCourse removes a course.
	DeleteCourse(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// ReconcileFailure records why one element of a reconciliation request was
// not applied.
type ReconcileFailure struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

// ReconcileResult is the aggregate outcome of a reconciliation request.
// Elements are applied independently, so some may succeed while others fail.
type ReconcileResult struct {
	Applied  int                `json:"applied"`
	Failures []ReconcileFailure `json:"failures,omitempty"`
}

// Service that applies caller-supplied course edits against storage
type ReconcileService interface {
	Reconcile(context.Context, []CoursePayload) (ReconcileResult, error)
	Update(context.Context, string, CoursePayload) (Course, error)
}

// Service that removes courses, refusing while enrollment is active
type RemovalService interface {
	Remove(context.Context, string) error
}
