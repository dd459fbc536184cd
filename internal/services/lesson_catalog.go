package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

// LessonDetail is a lesson with its assessments and pipeline log.
type LessonDetail struct {
	Lesson      *types.Lesson                `json:"lesson"`
	Assessments []*types.Assessment          `json:"assessments"`
	Logs        []*types.LessonProcessingLog `json:"processing_logs"`
}

// AssessmentView is an assessment as served to a reader. Answers are
// blanked unless the caller asked for them.
type AssessmentView struct {
	Assessment *types.Assessment `json:"assessment"`
	SectionIDs []uuid.UUID       `json:"section_ids"`
}

// LessonCatalog serves read access to persisted lessons and assessments.
type LessonCatalog interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*types.Lesson, error)
	Lesson(ctx context.Context, lessonID uuid.UUID) (*LessonDetail, error)
	// Assessment loads an assessment with its items. forStudent rejects
	// drafts and strips correct answers.
	Assessment(ctx context.Context, assessmentID uuid.UUID, forStudent bool) (*AssessmentView, error)
}

type lessonCatalog struct {
	log            *logger.Logger
	lessonRepo     repos.LessonRepo
	assessmentRepo repos.AssessmentRepo
	logRepo        repos.ProcessingLogRepo
}

func NewLessonCatalog(
	baseLog *logger.Logger,
	lessonRepo repos.LessonRepo,
	assessmentRepo repos.AssessmentRepo,
	logRepo repos.ProcessingLogRepo,
) LessonCatalog {
	return &lessonCatalog{
		log:            baseLog.With("service", "LessonCatalog"),
		lessonRepo:     lessonRepo,
		assessmentRepo: assessmentRepo,
		logRepo:        logRepo,
	}
}

func (s *lessonCatalog) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*types.Lesson, error) {
	out, err := s.lessonRepo.GetBySubjectID(ctx, nil, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return out, nil
}

func (s *lessonCatalog) Lesson(ctx context.Context, lessonID uuid.UUID) (*LessonDetail, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	assessments, err := s.assessmentRepo.GetByLessonID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	logs, err := s.logRepo.ListByLessonID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list processing logs: %w", err)
	}
	return &LessonDetail{Lesson: lesson, Assessments: assessments, Logs: logs}, nil
}

func (s *lessonCatalog) Assessment(ctx context.Context, assessmentID uuid.UUID, forStudent bool) (*AssessmentView, error) {
	a, err := s.assessmentRepo.GetByID(ctx, nil, assessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if forStudent {
		if !a.Published() {
			return nil, ErrAssessmentNotPublished
		}
		for i := range a.Items {
			a.Items[i].CorrectAnswer = ""
		}
	}
	sections, err := s.assessmentRepo.SectionIDs(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return &AssessmentView{Assessment: a, SectionIDs: sections}, nil
}
