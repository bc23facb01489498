package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"masterlearn/internal/domain"
)

type CourseRepository interface {
	List(ctx context.Context) ([]domain.Course, error)
	Create(ctx context.Context, course domain.Course) error
}

type PgCourseRepository struct {
	pool *pgxpool.Pool
}

func NewPgCourseRepository(pool *pgxpool.Pool) *PgCourseRepository {
	return &PgCourseRepository{pool: pool}
}

func (r *PgCourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	const query = `
		SELECT id, title, category, instructor, rating, price, image, description, created_at
		FROM courses
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanCourses(rows)
}

// Create inserta un curso; (title, instructor) repetido devuelve ErrDuplicate.
func (r *PgCourseRepository) Create(ctx context.Context, course domain.Course) error {
	const query = `
		INSERT INTO courses (id, title, category, instructor, rating, price, image, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		course.ID,
		course.Title,
		course.Category,
		course.Instructor,
		course.Rating,
		course.Price,
		course.Image,
		course.Description,
		course.CreatedAt,
	)
	return translatePgError(err)
}

func scanCourses(rows pgx.Rows) ([]domain.Course, error) {
	defer rows.Close()
	courses := make([]domain.Course, 0)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Category,
			&c.Instructor,
			&c.Rating,
			&c.Price,
			&c.Image,
			&c.Description,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
