package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/config"
)

var _ coodecraft.Repository = SQLiteRepository{}

type SQLiteRepository struct {
	db  *sql.DB
	cfg config.SQLite
}

// creates a new repository backed by sqlite
// returns an error if the connection cannot be established or if a ping fails
func newSQLiteRepository(ctx context.Context, cfg config.SQLite) (SQLiteRepository, error) {
	// open connection
	db, err := sql.Open("sqlite", cfg.ConnectionString)
	if err != nil {
		return SQLiteRepository{}, fmt.Errorf("failed to open connection to sqlite: %w", err)
	}

	// check connection
	err = db.PingContext(ctx)
	if err != nil {
		return SQLiteRepository{}, fmt.Errorf("failed to ping db: %w", err)
	}

	// perform migrations
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return SQLiteRepository{}, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations/sqlite", "sqlite", driver)
	if err != nil {
		return SQLiteRepository{}, fmt.Errorf("failed to create migration: %w", err)
	}

	err = m.Up()
	if err != nil && err.Error() != "no change" {
		return SQLiteRepository{}, fmt.Errorf("failed to execute migrations: %w", err)
	}

	return SQLiteRepository{db, cfg}, nil
}

func (r SQLiteRepository) ListCourses(ctx context.Context) ([]coodecraft.Course, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, description, price, image, image_id, duration, level, features, is_active, created_at, updated_at FROM courses ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses from the db: %w", err)
	}

	var courses []coodecraft.Course

	defer rows.Close()
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	for i := range courses {
		batches, err := r.fetchBatches(ctx, courses[i].ID)
		if err != nil {
			return nil, err
		}
		courses[i].Batches = batches
	}

	if courses == nil {
		courses = []coodecraft.Course{}
	}

	return courses, nil
}

func (r SQLiteRepository) GetCourse(ctx context.Context, id string) (coodecraft.Course, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, title, description, price, image, image_id, duration, level, features, is_active, created_at, updated_at FROM courses WHERE id=$1", id)

	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return coodecraft.Course{}, coodecraft.NotFoundError{ID: id}
	}
	if err != nil {
		return coodecraft.Course{}, err
	}

	batches, err := r.fetchBatches(ctx, id)
	if err != nil {
		return coodecraft.Course{}, err
	}
	course.Batches = batches

	return course, nil
}

func (r SQLiteRepository) InsertCourse(ctx context.Context, course coodecraft.Course) (string, error) {
	txCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	features, err := json.Marshal(course.Features)
	if err != nil {
		return "", fmt.Errorf("failed to encode features: %w", err)
	}

	_, err = tx.ExecContext(txCtx,
		"INSERT INTO courses (id, title, description, price, image, image_id, duration, level, features, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		id, course.Title, course.Description, course.Price, course.Image, course.ImageID, course.Duration, course.Level, string(features), course.IsActive, course.CreatedAt.UTC().UnixNano(), course.UpdatedAt.UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert statement failed: %w", err)
	}

	if err := insertBatches(txCtx, tx, id, course.Batches); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (r SQLiteRepository) ReplaceCourse(ctx context.Context, id string, course coodecraft.Course) error {
	txCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	features, err := json.Marshal(course.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	// created_at is deliberately not part of the update
	res, err := tx.ExecContext(txCtx,
		"UPDATE courses SET title=$1, description=$2, price=$3, image=$4, image_id=$5, duration=$6, level=$7, features=$8, is_active=$9, updated_at=$10 WHERE id=$11",
		course.Title, course.Description, course.Price, course.Image, course.ImageID, course.Duration, course.Level, string(features), course.IsActive, course.UpdatedAt.UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update statement failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to fetch affected row count: %w", err)
	}
	if affected == 0 {
		return coodecraft.NotFoundError{ID: id}
	}

	// the batch list is replaced wholesale, never merged
	if _, err := tx.ExecContext(txCtx, "DELETE FROM batches WHERE course_id=$1", id); err != nil {
		return fmt.Errorf("failed to clear existing batches: %w", err)
	}

	if err := insertBatches(txCtx, tx, id, course.Batches); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r SQLiteRepository) DeleteCourse(ctx context.Context, id string) error {
	txCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(txCtx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(txCtx, "DELETE FROM batches WHERE course_id=$1", id); err != nil {
		return fmt.Errorf("failed to delete batches: %w", err)
	}

	res, err := tx.ExecContext(txCtx, "DELETE FROM courses WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to fetch affected row count: %w", err)
	}
	if affected == 0 {
		return coodecraft.NotFoundError{ID: id}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r SQLiteRepository) Close(_ context.Context) error {
	return r.db.Close()
}

func insertBatches(ctx context.Context, tx *sql.Tx, courseID string, batches []coodecraft.Batch) error {
	for i, batch := range batches {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO batches (course_id, position, start_date, end_date, seats, enrolled_students, status, batch_code) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			courseID, i, batch.StartDate.UTC().Format(time.RFC3339Nano), batch.EndDate.UTC().Format(time.RFC3339Nano), batch.Seats, batch.EnrolledStudents, batch.Status, batch.BatchCode)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", i, err)
		}
	}
	return nil
}

func (r SQLiteRepository) fetchBatches(ctx context.Context, courseID string) ([]coodecraft.Batch, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT start_date, end_date, seats, enrolled_students, status, batch_code FROM batches WHERE course_id=$1 ORDER BY position", courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batches from the db: %w", err)
	}

	batches := []coodecraft.Batch{}

	defer rows.Close()
	for rows.Next() {
		var batch coodecraft.Batch
		var start, end string

		if err := rows.Scan(&start, &end, &batch.Seats, &batch.EnrolledStudents, &batch.Status, &batch.BatchCode); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if batch.StartDate, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("failed to parse batch start date: %w", err)
		}
		if batch.EndDate, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("failed to parse batch end date: %w", err)
		}

		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return batches, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (coodecraft.Course, error) {
	var course coodecraft.Course
	var features string
	var createdAt, updatedAt int64

	err := row.Scan(&course.ID, &course.Title, &course.Description, &course.Price, &course.Image, &course.ImageID, &course.Duration, &course.Level, &features, &course.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return coodecraft.Course{}, err
		}
		return coodecraft.Course{}, fmt.Errorf("failed to scan row: %w", err)
	}

	if err := json.Unmarshal([]byte(features), &course.Features); err != nil {
		return coodecraft.Course{}, fmt.Errorf("failed to decode features: %w", err)
	}
	if course.Features == nil {
		course.Features = []string{}
	}

	course.CreatedAt = time.Unix(0, createdAt).UTC()
	course.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return course, nil
}
