package service

import (
	"context"
	"errors"

	"masterlearn/internal/domain"
	"masterlearn/internal/repository"
)

// CourseService expone el catalogo.
type CourseService struct {
	courses repository.CourseRepository
}

func NewCourseService(courses repository.CourseRepository) *CourseService {
	return &CourseService{courses: courses}
}

func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	if s.courses == nil {
		return nil, errors.New("course service not configured")
	}
	return s.courses.List(ctx)
}
