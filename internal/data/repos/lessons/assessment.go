package lessons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *types.Assessment) (*types.Assessment, error)
	CreateItems(ctx context.Context, tx *gorm.DB, items []*types.AssessmentItem) ([]*types.AssessmentItem, error)
	// DeleteItems removes every item of the assessment. Past answers keep
	// their item ids.
	DeleteItems(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) error
	// GetByID loads the assessment with its items in position order.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assessment, error)
	GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Assessment, error)
	FirstByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Assessment, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
	// SyncSections makes sectionIDs the exact set of sections linked to the
	// assessment.
	SyncSections(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, sectionIDs []uuid.UUID) error
	SectionIDs(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	repoLog := baseLog.With("repo", "AssessmentRepo")
	return &assessmentRepo{db: db, log: repoLog}
}

func (r *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessment *types.Assessment) (*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Omit("Items", "Sections", "Lesson").Create(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

func (r *assessmentRepo) CreateItems(ctx context.Context, tx *gorm.DB, items []*types.AssessmentItem) ([]*types.AssessmentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.AssessmentItem{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *assessmentRepo) DeleteItems(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&types.AssessmentItem{}).Error
}

func (r *assessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.Assessment
	if err := transaction.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Sections").
		Where("id = ?", id).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepo) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Assessment
	if lessonID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FirstByLessonID returns gorm.ErrRecordNotFound when the lesson has no
// assessment.
func (r *assessmentRepo) FirstByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.Assessment
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Assessment{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assessmentRepo) SyncSections(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, sectionIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	want := map[uuid.UUID]bool{}
	for _, id := range sectionIDs {
		if id != uuid.Nil {
			want[id] = true
		}
	}

	existing, err := r.SectionIDs(ctx, transaction, assessmentID)
	if err != nil {
		return err
	}
	var stale []uuid.UUID
	for _, id := range existing {
		if want[id] {
			delete(want, id)
			continue
		}
		stale = append(stale, id)
	}
	if len(stale) > 0 {
		if err := transaction.WithContext(ctx).
			Where("assessment_id = ? AND section_id IN ?", assessmentID, stale).
			Delete(&types.AssessmentSection{}).Error; err != nil {
			return err
		}
	}
	if len(want) == 0 {
		return nil
	}
	rows := make([]*types.AssessmentSection, 0, len(want))
	for _, id := range sectionIDs {
		if want[id] {
			rows = append(rows, &types.AssessmentSection{AssessmentID: assessmentID, SectionID: id})
			delete(want, id)
		}
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *assessmentRepo) SectionIDs(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.AssessmentSection{}).
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Pluck("section_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *assessmentRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if tx != nil {
		return deleteAssessmentTree(tx.WithContext(ctx), ids)
	}
	return r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return deleteAssessmentTree(txx, ids)
	})
}
