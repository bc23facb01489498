package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"masterlearn/internal/domain"
	"masterlearn/internal/repository"
)

const sampleDataset = `[
  {"id": 1, "title": "Go Basics", "tags": ["Programming", "Go"], "instructor": "Rob", "rating": "4.7", "price": "$19.99", "image": "go.png", "description": "intro"},
  {"title": "Design", "tags": [], "instructor": "Ana", "rating": 4, "price": 0, "image": "", "description": ""},
  {"title": "Free stuff", "instructor": "Bo", "rating": "n/a", "price": "Free"},
  {"title": "Nulls", "instructor": "Cy", "rating": null, "price": null},
  {"title": "Odd numbers", "instructor": "Di", "rating": "NaN", "price": "$Infinity"},
  {"title": "More odd", "instructor": "Ed", "rating": "-Inf", "price": "inf"}
]`

func TestParseCourseDataset(t *testing.T) {
	courses, err := ParseCourseDataset(strings.NewReader(sampleDataset))
	require.NoError(t, err)
	require.Len(t, courses, 6)

	require.Equal(t, "Programming", courses[0].Category)
	require.NotNil(t, courses[0].Rating)
	require.InDelta(t, 4.7, *courses[0].Rating, 1e-9)
	require.NotNil(t, courses[0].Price)
	require.InDelta(t, 19.99, *courses[0].Price, 1e-9)

	require.Equal(t, uncategorized, courses[1].Category)
	require.InDelta(t, 4.0, *courses[1].Rating, 1e-9)
	require.InDelta(t, 0.0, *courses[1].Price, 1e-9)

	require.Nil(t, courses[2].Rating)
	require.Nil(t, courses[2].Price)
	require.Nil(t, courses[3].Rating)
	require.Nil(t, courses[3].Price)

	for _, c := range courses[4:] {
		require.Nil(t, c.Rating, c.Title)
		require.Nil(t, c.Price, c.Title)
	}
	_, err = json.Marshal(courses)
	require.NoError(t, err)
}

func TestParseCourseDataset_Malformed(t *testing.T) {
	_, err := ParseCourseDataset(strings.NewReader(`{"title": "not an array"}`))
	require.Error(t, err)
}

type mockCourseRepo struct {
	created []domain.Course
	seen    map[string]bool
	failOn  string
}

func (m *mockCourseRepo) List(_ context.Context) ([]domain.Course, error) {
	return m.created, nil
}

func (m *mockCourseRepo) Create(_ context.Context, c domain.Course) error {
	if c.Title == m.failOn {
		return errors.New("boom")
	}
	key := c.Title + "|" + c.Instructor
	if m.seen[key] {
		return repository.ErrDuplicate
	}
	m.seen[key] = true
	m.created = append(m.created, c)
	return nil
}

func TestCourseImporter_Import(t *testing.T) {
	repo := &mockCourseRepo{seen: make(map[string]bool), failOn: "Broken"}
	importer := NewCourseImporter(zap.NewNop(), repo)

	res, err := importer.Import(context.Background(), []domain.Course{
		{Title: "Go Basics", Instructor: "Rob", Category: "Programming"},
		{Title: "Go Basics", Instructor: "Rob", Category: "Programming"},
		{Title: "Broken", Instructor: "X", Category: "Misc"},
		{Title: "", Instructor: "Nobody"},
		{Title: "Design", Instructor: "Ana", Category: "Art"},
	})
	require.NoError(t, err)
	require.Equal(t, ImportResult{Inserted: 2, Skipped: 1, Failed: 2}, res)
	for _, c := range repo.created {
		require.NotEmpty(t, c.ID)
		require.False(t, c.CreatedAt.IsZero())
	}

	list, err := NewCourseService(repo).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestCourseImporter_StopsOnCancel(t *testing.T) {
	repo := &mockCourseRepo{seen: make(map[string]bool)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewCourseImporter(nil, repo).Import(ctx, []domain.Course{{Title: "A", Instructor: "B"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, res.Inserted)
}
