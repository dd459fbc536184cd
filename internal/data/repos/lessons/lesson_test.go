package lessons

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos/testutil"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
)

func TestLessonRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewLessonRepo(db, testutil.Logger(t))

	subject := uuid.New()
	l := &types.Lesson{SubjectID: subject, ProfessorID: uuid.New(), Title: "Photosynthesis"}
	if _, err := repo.Create(ctx, tx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	got, err := repo.GetByID(ctx, tx, l.ID)
	if err != nil || got.Title != "Photosynthesis" {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}
	if rows, err := repo.GetBySubjectID(ctx, tx, subject); err != nil || len(rows) != 1 {
		t.Fatalf("GetBySubjectID: err=%v len=%d", err, len(rows))
	}
	if _, err := repo.GetByID(ctx, tx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByID missing: expected not found, got %v", err)
	}
}

func TestLessonRepoDeleteCascade(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	logg := testutil.Logger(t)
	lessonRepo := NewLessonRepo(db, logg)
	assessmentRepo := NewAssessmentRepo(db, logg)
	logRepo := NewProcessingLogRepo(db, logg)

	keep := testutil.SeedLesson(t, ctx, tx, "keep")
	keepAssessment := testutil.SeedAssessment(t, ctx, tx, keep.ID, types.StatusPublished)

	doomed := testutil.SeedLesson(t, ctx, tx, "doomed")
	a := testutil.SeedAssessment(t, ctx, tx, doomed.ID, types.StatusPublished)
	if err := assessmentRepo.SyncSections(ctx, tx, a.ID, []uuid.UUID{uuid.New()}); err != nil {
		t.Fatalf("SyncSections: %v", err)
	}
	at := testutil.SeedAttempt(t, ctx, tx, uuid.New(), a.ID, 1)
	testutil.SeedAnswer(t, ctx, tx, at.ID, a.Items[0], "A", true)
	if _, err := logRepo.Create(ctx, tx, []*types.LessonProcessingLog{
		{LessonID: doomed.ID, Stage: types.StageUpload, Status: types.LogStatusSuccess},
	}); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if err := lessonRepo.DeleteCascade(ctx, tx, doomed.ID); err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}

	counts := map[string]interface{}{
		"lesson":        &types.Lesson{},
		"assessment":    &types.Assessment{},
		"item":          &types.AssessmentItem{},
		"section":       &types.AssessmentSection{},
		"attempt":       &types.AssessmentAttempt{},
		"answer":        &types.StudentAnswer{},
		"processinglog": &types.LessonProcessingLog{},
	}
	want := map[string]int64{
		"lesson":        1,
		"assessment":    1,
		"item":          3,
		"section":       0,
		"attempt":       0,
		"answer":        0,
		"processinglog": 0,
	}
	for name, model := range counts {
		var n int64
		if err := tx.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		if n != want[name] {
			t.Fatalf("after cascade: %s count=%d want %d", name, n, want[name])
		}
	}

	if _, err := assessmentRepo.GetByID(ctx, tx, keepAssessment.ID); err != nil {
		t.Fatalf("other lesson's assessment should survive: %v", err)
	}
	if err := lessonRepo.DeleteCascade(ctx, tx, doomed.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second DeleteCascade: expected not found, got %v", err)
	}
}
