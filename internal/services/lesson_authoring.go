package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/modules/generation/extract"
	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
)

// ManualLessonRequest creates a lesson whose questions the instructor wrote.
// Status defaults to draft.
type ManualLessonRequest struct {
	SubjectID   uuid.UUID
	ProfessorID uuid.UUID
	Title       string
	Status      string
	Items       []generation.AuthoredQuestion
	SectionIDs  []uuid.UUID
}

func (r ManualLessonRequest) Validate() error {
	var problems []string
	if r.SubjectID == uuid.Nil {
		problems = append(problems, "Please select a subject.")
	}
	title := strings.TrimSpace(r.Title)
	switch {
	case title == "":
		problems = append(problems, "Please enter a lesson title.")
	case len([]rune(title)) > maxTitleLength:
		problems = append(problems, "Lesson title must not exceed 255 characters.")
	}
	if r.Status != "" && !types.ValidStatus(r.Status) {
		problems = append(problems, "Status must be draft or published.")
	}
	if len(problems) > 0 {
		return &extract.ValidationError{Message: strings.Join(problems, " ")}
	}
	return nil
}

func (lp *lessonPipeline) CreateManual(ctx context.Context, req ManualLessonRequest) (*SavedLesson, error) {
	ctx, span := lp.tracer.Start(ctx, "lesson_pipeline.create_manual")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	set, err := generation.FromAuthored(req.Items)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	var saved SavedLesson
	err = lp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lesson := &types.Lesson{
			SubjectID:   req.SubjectID,
			ProfessorID: req.ProfessorID,
			Title:       title,
		}
		if _, err := lp.lessonRepo.Create(ctx, tx, lesson); err != nil {
			return &generation.PersistenceError{Op: "create lesson", Err: err}
		}
		assessment, err := lp.assessments.Generate(ctx, tx, lesson, set, GenerateConfig{
			Type:   types.AssessmentTypeRegular,
			Status: req.Status,
		})
		if err != nil {
			return err
		}
		if len(req.SectionIDs) > 0 {
			if err := lp.assessmentRepo.SyncSections(ctx, tx, assessment.ID, req.SectionIDs); err != nil {
				return &generation.PersistenceError{Op: "assign sections", Err: err}
			}
		}
		saved = SavedLesson{Lesson: lesson, Assessment: assessment}
		return nil
	})
	if err != nil {
		lp.log.Error("Manual assessment creation failed", append(ctxutil.LogFields(ctx),
			"lesson_title", title,
			"professor_id", req.ProfessorID,
			"error", err,
		)...)
		return nil, fail(span, asPersistenceError("create manual lesson", err))
	}
	lp.log.Info("Manual assessment created", append(ctxutil.LogFields(ctx),
		"lesson_id", saved.Lesson.ID,
		"assessment_id", saved.Assessment.ID,
		"professor_id", req.ProfessorID,
		"total_items", len(saved.Assessment.Items),
	)...)
	return &saved, nil
}

func (lp *lessonPipeline) UpdateAssessment(ctx context.Context, lessonID uuid.UUID, req SaveRequest) (*types.Assessment, error) {
	ctx, span := lp.tracer.Start(ctx, "lesson_pipeline.update_assessment")
	defer span.End()

	set, err := generation.FromAuthored(req.Items)
	if err != nil {
		return nil, err
	}

	var out *types.Assessment
	err = lp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lp.assessmentRepo.FirstByLessonID(ctx, tx, lessonID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		if err != nil {
			return fmt.Errorf("load assessment: %w", err)
		}
		if err := lp.assessmentRepo.DeleteItems(ctx, tx, a.ID); err != nil {
			return &generation.PersistenceError{Op: "replace assessment items", Err: err}
		}
		items, err := BuildItems(a.ID, set)
		if err != nil {
			return err
		}
		if _, err := lp.assessmentRepo.CreateItems(ctx, tx, items); err != nil {
			return &generation.PersistenceError{Op: "replace assessment items", Err: err}
		}
		if req.SectionIDs != nil {
			if err := lp.assessmentRepo.SyncSections(ctx, tx, a.ID, req.SectionIDs); err != nil {
				return &generation.PersistenceError{Op: "assign sections", Err: err}
			}
		}
		out, err = lp.assessmentRepo.GetByID(ctx, tx, a.ID)
		return err
	})
	if errors.Is(err, ErrAssessmentNotFound) {
		return nil, err
	}
	if err != nil {
		lp.log.Error("Assessment update failed", append(ctxutil.LogFields(ctx), "lesson_id", lessonID, "error", err)...)
		return nil, fail(span, asPersistenceError("update assessment", err))
	}
	lp.log.Info("Assessment updated", append(ctxutil.LogFields(ctx),
		"lesson_id", lessonID,
		"assessment_id", out.ID,
		"total_items", len(out.Items),
	)...)
	return out, nil
}

func asPersistenceError(op string, err error) error {
	var pe *generation.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &generation.PersistenceError{Op: op, Err: err}
}
