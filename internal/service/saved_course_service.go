package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"masterlearn/internal/domain"
	"masterlearn/internal/repository"
)

var (
	ErrCourseIDRequired    = errors.New("course id is required")
	ErrInvalidCourseID     = errors.New("invalid course id")
	ErrAlreadySaved        = errors.New("course already saved")
	ErrCourseNotFound      = errors.New("course not found")
	ErrSavedCourseNotFound = errors.New("saved course not found")
)

// SavedCourseService maneja los favoritos de cada usuario. La unicidad la
// garantiza la base: se inserta directamente y se traduce el conflicto.
type SavedCourseService struct {
	saved repository.SavedCourseRepository
}

func NewSavedCourseService(saved repository.SavedCourseRepository) *SavedCourseService {
	return &SavedCourseService{saved: saved}
}

func (s *SavedCourseService) Save(ctx context.Context, username, courseID string) error {
	id, err := parseCourseID(courseID)
	if err != nil {
		return err
	}
	err = s.saved.Save(ctx, domain.SavedCourse{
		Username:  username,
		CourseID:  id,
		CreatedAt: time.Now().UTC(),
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadySaved
	case errors.Is(err, repository.ErrForeignKey):
		return ErrCourseNotFound
	default:
		return err
	}
}

func (s *SavedCourseService) Unsave(ctx context.Context, username, courseID string) error {
	id, err := parseCourseID(courseID)
	if err != nil {
		return err
	}
	if err := s.saved.Delete(ctx, username, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSavedCourseNotFound
		}
		return err
	}
	return nil
}

func (s *SavedCourseService) List(ctx context.Context, username string) ([]domain.Course, error) {
	return s.saved.ListCourses(ctx, username)
}

func parseCourseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrCourseIDRequired
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidCourseID
	}
	return id.String(), nil
}
