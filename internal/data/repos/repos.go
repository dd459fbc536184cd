package repos

import (
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos/lessons"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type LessonRepo = lessons.LessonRepo
type AssessmentRepo = lessons.AssessmentRepo
type AttemptRepo = lessons.AttemptRepo
type ProcessingLogRepo = lessons.ProcessingLogRepo

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return lessons.NewLessonRepo(db, baseLog)
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return lessons.NewAssessmentRepo(db, baseLog)
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return lessons.NewAttemptRepo(db, baseLog)
}

func NewProcessingLogRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingLogRepo {
	return lessons.NewProcessingLogRepo(db, baseLog)
}
