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

func TestAssessmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAssessmentRepo(db, testutil.Logger(t))
	lesson := testutil.SeedLesson(t, ctx, tx, "cells")

	a := &types.Assessment{LessonID: lesson.ID, Title: "Assessment for cells"}
	if _, err := repo.Create(ctx, tx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Type != types.AssessmentTypeQuiz || a.Status != types.StatusDraft {
		t.Fatalf("Create defaults: type=%q status=%q", a.Type, a.Status)
	}

	items := []*types.AssessmentItem{
		{AssessmentID: a.ID, Position: 2, Question: "q2", Type: "identification", CorrectAnswer: "x"},
		{AssessmentID: a.ID, Position: 1, Question: "q1", Type: "true_or_false", CorrectAnswer: "True"},
	}
	if _, err := repo.CreateItems(ctx, tx, items); err != nil {
		t.Fatalf("CreateItems: %v", err)
	}
	if out, err := repo.CreateItems(ctx, tx, nil); err != nil || len(out) != 0 {
		t.Fatalf("CreateItems empty: err=%v len=%d", err, len(out))
	}

	got, err := repo.GetByID(ctx, tx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].Position != 1 || got.Items[1].Position != 2 {
		t.Fatalf("GetByID: items not in position order: %+v", got.Items)
	}

	first, err := repo.FirstByLessonID(ctx, tx, lesson.ID)
	if err != nil || first.ID != a.ID {
		t.Fatalf("FirstByLessonID: err=%v first=%v", err, first)
	}
	if rows, err := repo.GetByLessonID(ctx, tx, lesson.ID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByLessonID: err=%v len=%d", err, len(rows))
	}
	if _, err := repo.FirstByLessonID(ctx, tx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("FirstByLessonID missing: expected not found, got %v", err)
	}

	if err := repo.UpdateStatus(ctx, tx, a.ID, types.StatusPublished); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got, _ := repo.GetByID(ctx, tx, a.ID); !got.Published() {
		t.Fatalf("UpdateStatus: status=%q", got.Status)
	}
	if err := repo.UpdateStatus(ctx, tx, uuid.New(), types.StatusDraft); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateStatus missing: expected not found, got %v", err)
	}

	if err := repo.DeleteByIDs(ctx, tx, []uuid.UUID{a.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&types.AssessmentItem{}).Where("assessment_id = ?", a.ID).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("DeleteByIDs items left: err=%v n=%d", err, n)
	}
}

func TestAssessmentRepoSyncSections(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAssessmentRepo(db, testutil.Logger(t))
	lesson := testutil.SeedLesson(t, ctx, tx, "sync")
	a := testutil.SeedAssessment(t, ctx, tx, lesson.ID, types.StatusDraft)

	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()
	if err := repo.SyncSections(ctx, tx, a.ID, []uuid.UUID{s1, s2, s1}); err != nil {
		t.Fatalf("SyncSections: %v", err)
	}
	assertSections(t, repo, tx, a.ID, s1, s2)

	if err := repo.SyncSections(ctx, tx, a.ID, []uuid.UUID{s2, s3}); err != nil {
		t.Fatalf("SyncSections replace: %v", err)
	}
	assertSections(t, repo, tx, a.ID, s2, s3)

	if err := repo.SyncSections(ctx, tx, a.ID, nil); err != nil {
		t.Fatalf("SyncSections clear: %v", err)
	}
	assertSections(t, repo, tx, a.ID)
}

func assertSections(t *testing.T, repo AssessmentRepo, tx *gorm.DB, assessmentID uuid.UUID, want ...uuid.UUID) {
	t.Helper()
	got, err := repo.SectionIDs(context.Background(), tx, assessmentID)
	if err != nil {
		t.Fatalf("SectionIDs: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("SectionIDs: got %v want %v", got, want)
	}
	set := map[uuid.UUID]bool{}
	for _, id := range got {
		set[id] = true
	}
	for _, id := range want {
		if !set[id] {
			t.Fatalf("SectionIDs: missing %s in %v", id, got)
		}
	}
}

func TestAssessmentRepoDeleteItems(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAssessmentRepo(db, testutil.Logger(t))
	lesson := testutil.SeedLesson(t, ctx, tx, "rivers")
	keep := testutil.SeedAssessment(t, ctx, tx, lesson.ID, types.StatusDraft)
	emptied := testutil.SeedAssessment(t, ctx, tx, lesson.ID, types.StatusDraft)

	if err := repo.DeleteItems(ctx, tx, emptied.ID); err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, emptied.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("DeleteItems left %d items", len(got.Items))
	}
	other, err := repo.GetByID(ctx, tx, keep.ID)
	if err != nil || len(other.Items) != 3 {
		t.Fatalf("DeleteItems touched another assessment: err=%v items=%d", err, len(other.Items))
	}
}
