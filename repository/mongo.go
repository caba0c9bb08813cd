package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/config"
)

var _ coodecraft.Repository = MongoRepository{}

type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoBatch struct {
	StartDate        time.Time `bson:"startDate"`
	EndDate          time.Time `bson:"endDate"`
	Seats            int       `bson:"seats"`
	EnrolledStudents int       `bson:"enrolledStudents"`
	Status           string    `bson:"status"`
	BatchCode        string    `bson:"batchCode"`
}

type mongoCourse struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Image       string             `bson:"image"`
	ImageID     string             `bson:"imageId"`
	Duration    string             `bson:"duration"`
	Level       string             `bson:"level"`
	Features    []string           `bson:"features"`
	IsActive    bool               `bson:"isActive"`
	Batches     []mongoBatch       `bson:"batches"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// creates a new repository backed by a mongo collection
// returns an error if the connection cannot be established or if a ping fails
func newMongoRepository(ctx context.Context, cfg config.Mongo) (MongoRepository, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return MongoRepository{}, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return MongoRepository{}, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	return MongoRepository{client, collection}, nil
}

func (r MongoRepository) ListCourses(ctx context.Context) ([]coodecraft.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses collection: %w", err)
	}

	var docs []mongoCourse
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode course documents: %w", err)
	}

	courses := make([]coodecraft.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.toCourse())
	}

	return courses, nil
}

func (r MongoRepository) GetCourse(ctx context.Context, id string) (coodecraft.Course, error) {
	oid, err := objectID(id)
	if err != nil {
		return coodecraft.Course{}, err
	}

	var doc mongoCourse
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return coodecraft.Course{}, coodecraft.NotFoundError{ID: id}
	}
	if err != nil {
		return coodecraft.Course{}, fmt.Errorf("failed to fetch course %s: %w", id, err)
	}

	return doc.toCourse(), nil
}

func (r MongoRepository) InsertCourse(ctx context.Context, course coodecraft.Course) (string, error) {
	result, err := r.collection.InsertOne(ctx, fromCourse(course))
	if err != nil {
		return "", fmt.Errorf("failed to insert course: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("mongo returned a non-ObjectID identifier")
	}

	return oid.Hex(), nil
}

func (r MongoRepository) ReplaceCourse(ctx context.Context, id string, course coodecraft.Course) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	// $set of the validated field set; _id and createdAt are left alone
	doc := fromCourse(course)
	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"price":       doc.Price,
		"image":       doc.Image,
		"imageId":     doc.ImageID,
		"duration":    doc.Duration,
		"level":       doc.Level,
		"features":    doc.Features,
		"isActive":    doc.IsActive,
		"batches":     doc.Batches,
		"updatedAt":   doc.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update course %s: %w", id, err)
	}

	if result.MatchedCount == 0 {
		return coodecraft.NotFoundError{ID: id}
	}

	return nil
}

func (r MongoRepository) DeleteCourse(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete course %s: %w", id, err)
	}

	if result.DeletedCount == 0 {
		return coodecraft.NotFoundError{ID: id}
	}

	return nil
}

func (r MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, coodecraft.NewValidationError("invalid course id %q", id)
	}
	return oid, nil
}

func fromCourse(course coodecraft.Course) mongoCourse {
	batches := make([]mongoBatch, 0, len(course.Batches))
	for _, b := range course.Batches {
		batches = append(batches, mongoBatch(b))
	}

	features := course.Features
	if features == nil {
		features = []string{}
	}

	return mongoCourse{
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

func (doc mongoCourse) toCourse() coodecraft.Course {
	batches := make([]coodecraft.Batch, 0, len(doc.Batches))
	for _, b := range doc.Batches {
		batches = append(batches, coodecraft.Batch(b))
	}

	features := doc.Features
	if features == nil {
		features = []string{}
	}

	return coodecraft.Course{
		ID:          doc.ID.Hex(),
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
