package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/config"
)

var _ coodecraft.Repository = FirestoreRepository{}

type FirestoreRepository struct {
	firestore *firestore.Client
	cfg       config.Firestore
}

type firestoreBatch struct {
	StartDate        time.Time `firestore:"startDate"`
	EndDate          time.Time `firestore:"endDate"`
	Seats            int       `firestore:"seats"`
	EnrolledStudents int       `firestore:"enrolledStudents"`
	Status           string    `firestore:"status"`
	BatchCode        string    `firestore:"batchCode"`
}

type firestoreCourse struct {
	Title       string           `firestore:"title"`
	Description string           `firestore:"description"`
	Price       float64          `firestore:"price"`
	Image       string           `firestore:"image"`
	ImageID     string           `firestore:"imageId"`
	Duration    string           `firestore:"duration"`
	Level       string           `firestore:"level"`
	Features    []string         `firestore:"features"`
	IsActive    bool             `firestore:"isActive"`
	Batches     []firestoreBatch `firestore:"batches"`
	CreatedAt   time.Time        `firestore:"createdAt"`
	UpdatedAt   time.Time        `firestore:"updatedAt"`
}

func newFirestoreRepository(ctx context.Context, cfg config.Firestore) (FirestoreRepository, error) {
	// Create a new Firestore client using application default credentials.
	if cfg.CredentialsFile == "" {
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return FirestoreRepository{}, err
		}

		return FirestoreRepository{client, cfg}, nil
	}

	// Create a new Firestore client using supplied credentials file.
	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return FirestoreRepository{}, err
	}

	return FirestoreRepository{client, cfg}, nil
}

func (f FirestoreRepository) courses() *firestore.CollectionRef {
	return f.firestore.Collection(f.cfg.CourseCollectionID)
}

func (f FirestoreRepository) ListCourses(ctx context.Context) ([]coodecraft.Course, error) {
	documents, err := f.courses().OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get all documents in courses collection: %w", err)
	}

	results := make([]coodecraft.Course, 0, len(documents))
	for _, document := range documents {
		var doc firestoreCourse
		if err := document.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to deserialize document: %w", err)
		}

		results = append(results, doc.toCourse(document.Ref.ID))
	}

	return results, nil
}

func (f FirestoreRepository) GetCourse(ctx context.Context, id string) (coodecraft.Course, error) {
	if err := validDocumentID(id); err != nil {
		return coodecraft.Course{}, err
	}

	document, err := f.courses().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return coodecraft.Course{}, coodecraft.NotFoundError{ID: id}
	}
	if err != nil {
		return coodecraft.Course{}, fmt.Errorf("failed to get course document %s: %w", id, err)
	}

	var doc firestoreCourse
	if err := document.DataTo(&doc); err != nil {
		return coodecraft.Course{}, fmt.Errorf("failed to deserialize document: %w", err)
	}

	return doc.toCourse(id), nil
}

func (f FirestoreRepository) InsertCourse(ctx context.Context, course coodecraft.Course) (string, error) {
	ref, _, err := f.courses().Add(ctx, fromCourseFirestore(course))
	if err != nil {
		return "", fmt.Errorf("failed to add course to collection: %w", err)
	}

	return ref.ID, nil
}

func (f FirestoreRepository) ReplaceCourse(ctx context.Context, id string, course coodecraft.Course) error {
	if err := validDocumentID(id); err != nil {
		return err
	}

	// Read first so the stored createdAt survives the overwrite.
	document, err := f.courses().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return coodecraft.NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to get course document %s: %w", id, err)
	}

	var existing firestoreCourse
	if err := document.DataTo(&existing); err != nil {
		return fmt.Errorf("failed to deserialize document: %w", err)
	}

	doc := fromCourseFirestore(course)
	doc.CreatedAt = existing.CreatedAt

	if _, err := f.courses().Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to replace course document %s: %w", id, err)
	}

	return nil
}

func (f FirestoreRepository) DeleteCourse(ctx context.Context, id string) error {
	if err := validDocumentID(id); err != nil {
		return err
	}

	// Firestore deletes are idempotent, so confirm existence to report
	// not-found the way the other backends do.
	_, err := f.courses().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return coodecraft.NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to get course document %s: %w", id, err)
	}

	if _, err := f.courses().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete course document %s: %w", id, err)
	}

	return nil
}

func (f FirestoreRepository) Close(_ context.Context) error {
	return f.firestore.Close()
}

func validDocumentID(id string) error {
	if id == "" || strings.Contains(id, "/") {
		return coodecraft.NewValidationError("invalid course id %q", id)
	}
	return nil
}

func fromCourseFirestore(course coodecraft.Course) firestoreCourse {
	batches := make([]firestoreBatch, 0, len(course.Batches))
	for _, b := range course.Batches {
		batches = append(batches, firestoreBatch(b))
	}

	features := course.Features
	if features == nil {
		features = []string{}
	}

	return firestoreCourse{
		Title:       course.Title,
		Description: course.Description,
		Price:       course.Price,
		Image:       course.Image,
		ImageID:     course.ImageID,
		Duration:    course.Duration,
		Level:       course.Level,
		Features:    features,
		IsActive:    course.IsActive,
		Batches:     batches,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

func (doc firestoreCourse) toCourse(id string) coodecraft.Course {
	batches := make([]coodecraft.Batch, 0, len(doc.Batches))
	for _, b := range doc.Batches {
		batches = append(batches, coodecraft.Batch(b))
	}

	features := doc.Features
	if features == nil {
		features = []string{}
	}

	return coodecraft.Course{
		ID:          id,
		Title:       doc.Title,
		Description: doc.Description,
		Price:       doc.Price,
		Image:       doc.Image,
		ImageID:     doc.ImageID,
		Duration:    doc.Duration,
		Level:       doc.Level,
		Features:    features,
		IsActive:    doc.IsActive,
		Batches:     batches,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
