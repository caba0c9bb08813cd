package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	coodecraft "github.com/codebytemirza/coodecraft"
)

// Reconciler implements ReconcileService
var _ coodecraft.ReconcileService = Reconciler{}

type Reconciler struct {
	repository coodecraft.Repository
	now        func() time.Time
}

func NewReconciler(r coodecraft.Repository) Reconciler {
	return Reconciler{r, time.Now}
}

// Reconcile applies a list of course edits against storage, element by
// element. Elements are independent: a failed element is recorded in the
// result and never aborts or rolls back its siblings. The list is not a
// transaction, so partial application is a normal outcome.
func (r Reconciler) Reconcile(ctx context.Context, payloads []coodecraft.CoursePayload) (coodecraft.ReconcileResult, error) {
	var result coodecraft.ReconcileResult

	for i, payload := range payloads {
		if err := r.apply(ctx, payload); err != nil {
			result.Failures = append(result.Failures, coodecraft.ReconcileFailure{
				Index: i,
				Title: payload.Title,
				Error: failureMessage(payload, err),
			})
			continue
		}
		result.Applied++
	}

	return result, nil
}

func (r Reconciler) apply(ctx context.Context, payload coodecraft.CoursePayload) error {
	// Per-element steps
	// 1. Validate the payload into a well-formed course
	// 2. With an identifier: overwrite the stored field set (missing target is
	//    an error, never an insert)
	// 3. Without one: insert, synthesizing a default first batch when the
	//    payload brought none

	now := r.now()
	course, err := payload.Validate(now)
	if err != nil {
		return err
	}
	course.UpdatedAt = now

	if payload.ID != "" {
		return r.repository.ReplaceCourse(ctx, payload.ID, course)
	}

	if len(course.Batches) == 0 {
		course.Batches = []coodecraft.Batch{coodecraft.NewDefaultBatch(course.Title, now)}
	}
	course.CreatedAt = now

	_, err = r.repository.InsertCourse(ctx, course)
	return err
}

// Update validates a single payload and overwrites the identified course,
// returning the stored record as it stands after the write.
func (r Reconciler) Update(ctx context.Context, id string, payload coodecraft.CoursePayload) (coodecraft.Course, error) {
	now := r.now()

	course, err := payload.Validate(now)
	if err != nil {
		return coodecraft.Course{}, err
	}
	course.UpdatedAt = now

	if err := r.repository.ReplaceCourse(ctx, id, course); err != nil {
		return coodecraft.Course{}, err
	}

	return r.repository.GetCourse(ctx, id)
}

// failureMessage keeps caller errors verbatim and hides storage internals
// behind a generic message, logging the detail instead.
func failureMessage(payload coodecraft.CoursePayload, err error) string {
	var validationErr coodecraft.ValidationError
	var notFoundErr coodecraft.NotFoundError
	if errors.As(err, &validationErr) || errors.As(err, &notFoundErr) {
		return err.Error()
	}

	log.Error().Err(err).Str("course_id", payload.ID).Str("title", payload.Title).Msg("failed to apply course edit")
	return "storage failure"
}
