package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"masterlearn/internal/domain"
)

// SavedCourseRepository persiste los pares (username, course_id).
type SavedCourseRepository interface {
	Save(ctx context.Context, saved domain.SavedCourse) error
	Delete(ctx context.Context, username, courseID string) error
	ListCourses(ctx context.Context, username string) ([]domain.Course, error)
}

type PgSavedCourseRepository struct {
	pool *pgxpool.Pool
}

func NewPgSavedCourseRepository(pool *pgxpool.Pool) *PgSavedCourseRepository {
	return &PgSavedCourseRepository{pool: pool}
}

// Save depende de la PK (username, course_id) para rechazar duplicados.
func (r *PgSavedCourseRepository) Save(ctx context.Context, saved domain.SavedCourse) error {
	const query = `
		INSERT INTO saved_courses (username, course_id, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query, saved.Username, saved.CourseID, saved.CreatedAt)
	return translatePgError(err)
}

// Delete devuelve pgx.ErrNoRows si el par no existia.
func (r *PgSavedCourseRepository) Delete(ctx context.Context, username, courseID string) error {
	const query = `
		DELETE FROM saved_courses
		WHERE username = $1 AND course_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, username, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgSavedCourseRepository) ListCourses(ctx context.Context, username string) ([]domain.Course, error) {
	const query = `
		SELECT c.id, c.title, c.category, c.instructor, c.rating, c.price, c.image, c.description, c.created_at
		FROM saved_courses sc
		JOIN courses c ON c.id = sc.course_id
		WHERE sc.username = $1
	`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	return scanCourses(rows)
}
