package lessons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type AttemptRepo interface {
	// NextAttemptNo is one past the highest attempt number the student has
	// for the assessment.
	NextAttemptNo(ctx context.Context, tx *gorm.DB, studentID, assessmentID uuid.UUID) (int, error)
	Create(ctx context.Context, tx *gorm.DB, attempt *types.AssessmentAttempt) (*types.AssessmentAttempt, error)
	CreateAnswers(ctx context.Context, tx *gorm.DB, answers []*types.StudentAnswer) ([]*types.StudentAnswer, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AssessmentAttempt, error)
	ListByStudentAssessment(ctx context.Context, tx *gorm.DB, studentID, assessmentID uuid.UUID) ([]*types.AssessmentAttempt, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) NextAttemptNo(ctx context.Context, tx *gorm.DB, studentID, assessmentID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var maxNo int
	if err := transaction.WithContext(ctx).
		Model(&types.AssessmentAttempt{}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Select("COALESCE(MAX(attempt_no), 0)").
		Scan(&maxNo).Error; err != nil {
		return 0, err
	}
	return maxNo + 1, nil
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.AssessmentAttempt) (*types.AssessmentAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Omit("Answers").Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *attemptRepo) CreateAnswers(ctx context.Context, tx *gorm.DB, answers []*types.StudentAnswer) ([]*types.StudentAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*types.StudentAnswer{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *attemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AssessmentAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.AssessmentAttempt
	if err := transaction.WithContext(ctx).
		Preload("Answers").
		Where("id = ?", id).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepo) ListByStudentAssessment(ctx context.Context, tx *gorm.DB, studentID, assessmentID uuid.UUID) ([]*types.AssessmentAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AssessmentAttempt
	if err := transaction.WithContext(ctx).
		Preload("Answers").
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("attempt_no ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
