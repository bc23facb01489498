package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"masterlearn/internal/domain"
	"masterlearn/internal/repository"
)

const uncategorized = "Uncategorized"

// datasetCourse es el formato del dataset de cursos que alimenta el catalogo.
type datasetCourse struct {
	Title       string      `json:"title"`
	Tags        []string    `json:"tags"`
	Instructor  string      `json:"instructor"`
	Rating      looseString `json:"rating"`
	Price       looseString `json:"price"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
}

// looseString acepta tanto numeros como strings JSON.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
		return nil
	}
	*l = looseString(data)
	return nil
}

// ParseCourseDataset convierte el dataset JSON en cursos listos para insertar.
// Categoria = primer tag; rating y price que no parsean quedan en nil.
func ParseCourseDataset(r io.Reader) ([]domain.Course, error) {
	var raw []datasetCourse
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	courses := make([]domain.Course, 0, len(raw))
	for _, c := range raw {
		category := uncategorized
		if len(c.Tags) > 0 && strings.TrimSpace(c.Tags[0]) != "" {
			category = strings.TrimSpace(c.Tags[0])
		}
		courses = append(courses, domain.Course{
			Title:       strings.TrimSpace(c.Title),
			Category:    category,
			Instructor:  strings.TrimSpace(c.Instructor),
			Rating:      parseLooseFloat(string(c.Rating)),
			Price:       parseLooseFloat(strings.ReplaceAll(string(c.Price), "$", "")),
			Image:       c.Image,
			Description: c.Description,
		})
	}
	return courses, nil
}

func parseLooseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type ImportResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// CourseImporter carga cursos en el catalogo uno a uno para que un error
// aislado no aborte la importacion.
type CourseImporter struct {
	logger  *zap.Logger
	courses repository.CourseRepository
}

func NewCourseImporter(logger *zap.Logger, courses repository.CourseRepository) *CourseImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseImporter{logger: logger, courses: courses}
}

func (i *CourseImporter) Import(ctx context.Context, courses []domain.Course) (ImportResult, error) {
	var res ImportResult
	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.Title == "" || c.Instructor == "" {
			i.logger.Warn("skipping course without title or instructor", zap.String("title", c.Title))
			res.Failed++
			continue
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		err := i.courses.Create(ctx, c)
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, repository.ErrDuplicate):
			i.logger.Warn("skipping duplicate course", zap.String("title", c.Title))
			res.Skipped++
		default:
			i.logger.Error("insert course failed", zap.String("title", c.Title), zap.Error(err))
			res.Failed++
		}
	}
	return res, nil
}
