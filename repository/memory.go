package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	coodecraft "github.com/codebytemirza/coodecraft"
)

var _ coodecraft.Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of the course repository
// for tests and local demos. It honors the same contract as the real
// backends: newest-first listing, preserved createdAt on replace, and
// not-found errors on missing identifiers.
type MemoryRepository struct {
	mutex   sync.RWMutex
	courses map[string]coodecraft.Course
	order   []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{courses: make(map[string]coodecraft.Course)}
}

func (r *MemoryRepository) ListCourses(_ context.Context) ([]coodecraft.Course, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	courses := make([]coodecraft.Course, 0, len(r.order))
	// walk insertion order backwards so equal timestamps list newest insert first
	for i := len(r.order) - 1; i >= 0; i-- {
		courses = append(courses, copyCourse(r.courses[r.order[i]]))
	}

	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})

	return courses, nil
}

func (r *MemoryRepository) GetCourse(_ context.Context, id string) (coodecraft.Course, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	course, ok := r.courses[id]
	if !ok {
		return coodecraft.Course{}, coodecraft.NotFoundError{ID: id}
	}

	return copyCourse(course), nil
}

func (r *MemoryRepository) InsertCourse(_ context.Context, course coodecraft.Course) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := uuid.NewString()
	course.ID = id
	r.courses[id] = copyCourse(course)
	r.order = append(r.order, id)

	return id, nil
}

func (r *MemoryRepository) ReplaceCourse(_ context.Context, id string, course coodecraft.Course) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, ok := r.courses[id]
	if !ok {
		return coodecraft.NotFoundError{ID: id}
	}

	course.ID = id
	course.CreatedAt = existing.CreatedAt
	r.courses[id] = copyCourse(course)

	return nil
}

func (r *MemoryRepository) DeleteCourse(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.courses[id]; !ok {
		return coodecraft.NotFoundError{ID: id}
	}

	delete(r.courses, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

func (r *MemoryRepository) Close(_ context.Context) error {
	return nil
}

func copyCourse(course coodecraft.Course) coodecraft.Course {
	copied := course
	copied.Features = append([]string{}, course.Features...)
	copied.Batches = append([]coodecraft.Batch{}, course.Batches...)
	return copied
}
