package remove

import (
	"context"

	coodecraft "github.com/codebytemirza/coodecraft"
)

// Remover implements RemovalService
var _ coodecraft.RemovalService = Remover{}

type Remover struct {
	repository coodecraft.Repository
}

func NewRemover(r coodecraft.Repository) Remover {
	return Remover{r}
}

// Remove deletes a course unless one of its batches is ongoing with
// students still enrolled. The guard reads the course immediately before
// the delete; the check-then-delete pair is not atomic, so a concurrent
// enrollment can slip between the two reads.
func (r Remover) Remove(ctx context.Context, id string) error {
	course, err := r.repository.GetCourse(ctx, id)
	if err != nil {
		return err
	}

	if !course.Deletable() {
		return coodecraft.NewConflictError("course %q has an ongoing batch with enrolled students", course.Title)
	}

	return r.repository.DeleteCourse(ctx, id)
}
