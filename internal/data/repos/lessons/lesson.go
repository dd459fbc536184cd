package lessons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	GetBySubjectID(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*types.Lesson, error)
	// DeleteCascade removes the lesson with its assessments, items, section
	// links, attempts, answers and processing logs.
	DeleteCascade(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

// GetByID returns gorm.ErrRecordNotFound when the lesson does not exist.
func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var lesson types.Lesson
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) GetBySubjectID(ctx context.Context, tx *gorm.DB, subjectID uuid.UUID) ([]*types.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Lesson
	if subjectID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	run := func(txx *gorm.DB) error {
		var assessmentIDs []uuid.UUID
		if err := txx.Model(&types.Assessment{}).
			Where("lesson_id = ?", id).
			Pluck("id", &assessmentIDs).Error; err != nil {
			return err
		}
		if err := deleteAssessmentTree(txx, assessmentIDs); err != nil {
			return err
		}
		if err := txx.Where("lesson_id = ?", id).Delete(&types.LessonProcessingLog{}).Error; err != nil {
			return err
		}
		res := txx.Where("id = ?", id).Delete(&types.Lesson{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	if tx != nil {
		return run(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(run)
}

// deleteAssessmentTree removes assessments and everything hanging off them.
func deleteAssessmentTree(tx *gorm.DB, assessmentIDs []uuid.UUID) error {
	if len(assessmentIDs) == 0 {
		return nil
	}
	var attemptIDs []uuid.UUID
	if err := tx.Model(&types.AssessmentAttempt{}).
		Where("assessment_id IN ?", assessmentIDs).
		Pluck("id", &attemptIDs).Error; err != nil {
		return err
	}
	if len(attemptIDs) > 0 {
		if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&types.StudentAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", attemptIDs).Delete(&types.AssessmentAttempt{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("assessment_id IN ?", assessmentIDs).Delete(&types.AssessmentItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("assessment_id IN ?", assessmentIDs).Delete(&types.AssessmentSection{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", assessmentIDs).Delete(&types.Assessment{}).Error
}
