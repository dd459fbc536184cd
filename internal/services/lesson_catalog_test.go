package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eduforge/lms-backend/internal/data/repos"
	"github.com/eduforge/lms-backend/internal/data/repos/testutil"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
)

func newCatalog(t *testing.T) (LessonCatalog, *types.Lesson, *types.Assessment) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	lesson := testutil.SeedLesson(t, ctx, db, "weather")
	a := testutil.SeedAssessment(t, ctx, db, lesson.ID, types.StatusDraft)
	cat := NewLessonCatalog(log, repos.NewLessonRepo(db, log), repos.NewAssessmentRepo(db, log), repos.NewProcessingLogRepo(db, log))
	return cat, lesson, a
}

func TestLessonCatalogAssessmentViews(t *testing.T) {
	cat, _, a := newCatalog(t)
	ctx := context.Background()

	v, err := cat.Assessment(ctx, a.ID, false)
	require.NoError(t, err)
	require.Len(t, v.Assessment.Items, 3)
	require.Equal(t, "A", v.Assessment.Items[0].CorrectAnswer)
	require.Empty(t, v.SectionIDs)

	_, err = cat.Assessment(ctx, a.ID, true)
	require.ErrorIs(t, err, ErrAssessmentNotPublished)

	_, err = cat.Assessment(ctx, uuid.New(), false)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestLessonCatalogLesson(t *testing.T) {
	cat, lesson, a := newCatalog(t)
	ctx := context.Background()

	d, err := cat.Lesson(ctx, lesson.ID)
	require.NoError(t, err)
	require.Equal(t, lesson.Title, d.Lesson.Title)
	require.Len(t, d.Assessments, 1)
	require.Equal(t, a.ID, d.Assessments[0].ID)

	list, err := cat.ListBySubject(ctx, lesson.SubjectID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = cat.Lesson(ctx, uuid.New())
	require.ErrorIs(t, err, ErrLessonNotFound)
}
