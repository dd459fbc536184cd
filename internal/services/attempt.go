package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type AttemptService interface {
	// Submit records a graded attempt. Only published assessments accept
	// submissions; answers to unknown items and blank answers are dropped.
	Submit(ctx context.Context, studentID, assessmentID uuid.UUID, answers map[uuid.UUID]string) (*AttemptResult, error)
	Result(ctx context.Context, attemptID uuid.UUID) (*AttemptResult, error)
	History(ctx context.Context, studentID, assessmentID uuid.UUID) (*AttemptHistory, error)
}

type ItemResult struct {
	ItemID        uuid.UUID       `json:"id"`
	Question      string          `json:"question"`
	Type          string          `json:"type"`
	Choices       json.RawMessage `json:"choices,omitempty"`
	CorrectAnswer string          `json:"correct_answer"`
	StudentAnswer *string         `json:"student_answer"`
	IsCorrect     bool            `json:"is_correct"`
}

type AttemptResult struct {
	AttemptID    uuid.UUID    `json:"attempt_id"`
	AssessmentID uuid.UUID    `json:"assessment_id"`
	AttemptNo    int          `json:"attempt_no"`
	CreatedAt    time.Time    `json:"created_at"`
	Grade        AttemptGrade `json:"results"`
	Items        []ItemResult `json:"items"`
}

type AttemptSummary struct {
	AttemptID uuid.UUID `json:"id"`
	AttemptNo int       `json:"attempt_no"`
	CreatedAt time.Time `json:"created_at"`
	AttemptGrade
}

type AttemptHistory struct {
	AssessmentID  uuid.UUID        `json:"assessment_id"`
	TotalAttempts int              `json:"total_attempts"`
	BestScore     float64          `json:"best_score"`
	BestAttemptNo *int             `json:"best_attempt_no"`
	Attempts      []AttemptSummary `json:"attempts"`
}

type attemptService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	attemptRepo    repos.AttemptRepo
}

func NewAttemptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessmentRepo repos.AssessmentRepo,
	attemptRepo repos.AttemptRepo,
) AttemptService {
	return &attemptService{
		db:             db,
		log:            baseLog.With("service", "AttemptService"),
		assessmentRepo: assessmentRepo,
		attemptRepo:    attemptRepo,
	}
}

func (s *attemptService) Submit(ctx context.Context, studentID, assessmentID uuid.UUID, answers map[uuid.UUID]string) (*AttemptResult, error) {
	var (
		assessment *types.Assessment
		attempt    *types.AssessmentAttempt
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.assessmentRepo.GetByID(ctx, tx, assessmentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		if err != nil {
			return fmt.Errorf("load assessment: %w", err)
		}
		if !a.Published() {
			return ErrAssessmentNotPublished
		}
		assessment = a

		no, err := s.attemptRepo.NextAttemptNo(ctx, tx, studentID, assessmentID)
		if err != nil {
			return fmt.Errorf("next attempt number: %w", err)
		}
		attempt = &types.AssessmentAttempt{
			StudentID:    studentID,
			AssessmentID: assessmentID,
			AttemptNo:    no,
		}
		if _, err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		rows := make([]*types.StudentAnswer, 0, len(answers))
		for _, it := range a.Items {
			raw, ok := answers[it.ID]
			if !ok || strings.TrimSpace(raw) == "" {
				continue
			}
			stored, err := json.Marshal(FormatAnswer(it.Type, raw))
			if err != nil {
				return fmt.Errorf("encode answer: %w", err)
			}
			rows = append(rows, &types.StudentAnswer{
				AttemptID:        attempt.ID,
				AssessmentItemID: it.ID,
				Type:             it.Type,
				Answer:           datatypes.JSON(stored),
				IsCorrect:        CompareAnswer(it.Type, raw, it.CorrectAnswer),
			})
		}
		created, err := s.attemptRepo.CreateAnswers(ctx, tx, rows)
		if err != nil {
			return fmt.Errorf("create answers: %w", err)
		}
		for _, r := range created {
			attempt.Answers = append(attempt.Answers, *r)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAssessmentNotFound) && !errors.Is(err, ErrAssessmentNotPublished) {
			s.log.Error("Submit attempt failed", append(ctxutil.LogFields(ctx), "assessment_id", assessmentID, "student_id", studentID, "error", err)...)
		}
		return nil, err
	}

	res := buildResult(assessment, attempt)
	s.log.Info("Attempt submitted", append(ctxutil.LogFields(ctx),
		"assessment_id", assessmentID,
		"student_id", studentID,
		"attempt_no", attempt.AttemptNo,
		"score", res.Grade.Score,
	)...)
	return res, nil
}

func (s *attemptService) Result(ctx context.Context, attemptID uuid.UUID) (*AttemptResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	assessment, err := s.assessmentRepo.GetByID(ctx, nil, attempt.AssessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	return buildResult(assessment, attempt), nil
}

// History lists the student's attempts newest first. The best attempt is
// the newest one holding the highest score.
func (s *attemptService) History(ctx context.Context, studentID, assessmentID uuid.UUID) (*AttemptHistory, error) {
	assessment, err := s.assessmentRepo.GetByID(ctx, nil, assessmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	attempts, err := s.attemptRepo.ListByStudentAssessment(ctx, nil, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].AttemptNo > attempts[j].AttemptNo })

	h := &AttemptHistory{
		AssessmentID:  assessmentID,
		TotalAttempts: len(attempts),
		Attempts:      make([]AttemptSummary, 0, len(attempts)),
	}
	for _, at := range attempts {
		g := GradeAttempt(assessment.Items, at.Answers)
		h.Attempts = append(h.Attempts, AttemptSummary{
			AttemptID:    at.ID,
			AttemptNo:    at.AttemptNo,
			CreatedAt:    at.CreatedAt,
			AttemptGrade: g,
		})
		if h.BestAttemptNo == nil || g.Score > h.BestScore {
			no := at.AttemptNo
			h.BestScore = g.Score
			h.BestAttemptNo = &no
		}
	}
	return h, nil
}

func buildResult(assessment *types.Assessment, attempt *types.AssessmentAttempt) *AttemptResult {
	byItem := make(map[uuid.UUID]types.StudentAnswer, len(attempt.Answers))
	for _, a := range attempt.Answers {
		byItem[a.AssessmentItemID] = a
	}
	res := &AttemptResult{
		AttemptID:    attempt.ID,
		AssessmentID: assessment.ID,
		AttemptNo:    attempt.AttemptNo,
		CreatedAt:    attempt.CreatedAt,
		Grade:        GradeAttempt(assessment.Items, attempt.Answers),
		Items:        make([]ItemResult, 0, len(assessment.Items)),
	}
	for _, it := range assessment.Items {
		ir := ItemResult{
			ItemID:        it.ID,
			Question:      it.Question,
			Type:          it.Type,
			CorrectAnswer: it.CorrectAnswer,
		}
		if len(it.Choices) > 0 {
			ir.Choices = json.RawMessage(it.Choices)
		}
		if a, ok := byItem[it.ID]; ok {
			v := StoredAnswer(a)
			ir.StudentAnswer = &v
			ir.IsCorrect = CompareAnswer(it.Type, v, it.CorrectAnswer)
		}
		res.Items = append(res.Items, ir)
	}
	return res
}
