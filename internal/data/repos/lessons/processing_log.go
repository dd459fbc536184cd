package lessons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type ProcessingLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.LessonProcessingLog) ([]*types.LessonProcessingLog, error)
	ListByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonProcessingLog, error)
}

type processingLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingLogRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingLogRepo {
	repoLog := baseLog.With("repo", "ProcessingLogRepo")
	return &processingLogRepo{db: db, log: repoLog}
}

func (r *processingLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.LessonProcessingLog) ([]*types.LessonProcessingLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.LessonProcessingLog{}, nil
	}
	if err := transaction.WithContext(ctx).Omit("Lesson").Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *processingLogRepo) ListByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonProcessingLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LessonProcessingLog
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
