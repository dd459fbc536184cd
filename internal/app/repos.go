package app

import (
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type Repos struct {
	Lesson        repos.LessonRepo
	Assessment    repos.AssessmentRepo
	Attempt       repos.AttemptRepo
	ProcessingLog repos.ProcessingLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Lesson:        repos.NewLessonRepo(db, log),
		Assessment:    repos.NewAssessmentRepo(db, log),
		Attempt:       repos.NewAttemptRepo(db, log),
		ProcessingLog: repos.NewProcessingLogRepo(db, log),
	}
}
