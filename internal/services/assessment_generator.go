package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

// GenerateConfig overrides the assessment defaults. Zero values mean
// "Assessment for {lesson title}", type quiz and status draft.
type GenerateConfig struct {
	Title  string
	Type   string
	Status string
}

type AssessmentGenerator interface {
	// Generate persists a draft assessment holding every question of set.
	// With a nil tx it runs in its own transaction; otherwise it joins tx and
	// the caller owns commit and rollback. Failures are *generation.PersistenceError.
	Generate(ctx context.Context, tx *gorm.DB, lesson *types.Lesson, set *generation.QuestionSet, cfg GenerateConfig) (*types.Assessment, error)
}

type assessmentGenerator struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
}

func NewAssessmentGenerator(db *gorm.DB, baseLog *logger.Logger, assessmentRepo repos.AssessmentRepo) AssessmentGenerator {
	return &assessmentGenerator{
		db:             db,
		log:            baseLog.With("service", "AssessmentGenerator"),
		assessmentRepo: assessmentRepo,
	}
}

func (g *assessmentGenerator) Generate(ctx context.Context, tx *gorm.DB, lesson *types.Lesson, set *generation.QuestionSet, cfg GenerateConfig) (*types.Assessment, error) {
	if lesson == nil || lesson.ID == uuid.Nil {
		return nil, &generation.PersistenceError{Op: "generate assessment", Err: fmt.Errorf("lesson is required")}
	}
	if set == nil {
		set = generation.NewQuestionSet()
	}
	title := cfg.Title
	if title == "" {
		title = "Assessment for " + lesson.Title
	}
	kind := cfg.Type
	if kind == "" {
		kind = types.AssessmentTypeQuiz
	}
	if !types.ValidAssessmentType(kind) {
		return nil, &generation.PersistenceError{Op: "generate assessment", Err: fmt.Errorf("unknown assessment type %q", kind)}
	}
	status := cfg.Status
	if status == "" {
		status = types.StatusDraft
	}
	if !types.ValidStatus(status) {
		return nil, &generation.PersistenceError{Op: "generate assessment", Err: fmt.Errorf("unknown assessment status %q", status)}
	}

	var out *types.Assessment
	run := func(txx *gorm.DB) error {
		a := &types.Assessment{
			LessonID: lesson.ID,
			Title:    title,
			Type:     kind,
			Status:   status,
		}
		if _, err := g.assessmentRepo.Create(ctx, txx, a); err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
		items, err := BuildItems(a.ID, set)
		if err != nil {
			return err
		}
		created, err := g.assessmentRepo.CreateItems(ctx, txx, items)
		if err != nil {
			return fmt.Errorf("create assessment items: %w", err)
		}
		for _, it := range created {
			a.Items = append(a.Items, *it)
		}
		out = a
		return nil
	}

	var err error
	if tx != nil {
		err = run(tx)
	} else {
		err = g.db.WithContext(ctx).Transaction(run)
	}
	if err != nil {
		g.log.Error("Assessment save failed", append(ctxutil.LogFields(ctx), "stage", types.StageSaving, "lesson_id", lesson.ID, "error", err)...)
		return nil, &generation.PersistenceError{Op: "generate assessment", Err: err}
	}
	g.log.Info("Assessment saved", append(ctxutil.LogFields(ctx),
		"stage", types.StageSaving,
		"lesson_id", lesson.ID,
		"assessment_id", out.ID,
		"total_items", len(out.Items),
	)...)
	return out, nil
}

// BuildItems lays the set out as items: multiple choice, then
// identification, then true/false, each bucket in its own order, with
// positions counting up from 1.
func BuildItems(assessmentID uuid.UUID, set *generation.QuestionSet) ([]*types.AssessmentItem, error) {
	items := make([]*types.AssessmentItem, 0, set.Total())
	next := func() int { return len(items) + 1 }
	for _, q := range set.MultipleChoice {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return nil, fmt.Errorf("encode choices: %w", err)
		}
		items = append(items, &types.AssessmentItem{
			AssessmentID:  assessmentID,
			Position:      next(),
			Question:      q.Question,
			Type:          string(generation.TypeMultipleChoice),
			Choices:       datatypes.JSON(choices),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	for _, q := range set.Identification {
		items = append(items, &types.AssessmentItem{
			AssessmentID:  assessmentID,
			Position:      next(),
			Question:      q.Question,
			Type:          string(generation.TypeIdentification),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	for _, q := range set.TrueOrFalse {
		items = append(items, &types.AssessmentItem{
			AssessmentID:  assessmentID,
			Position:      next(),
			Question:      q.Question,
			Type:          string(generation.TypeTrueOrFalse),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return items, nil
}
