package app

import (
	"github.com/eduforge/lms-backend/internal/http/handlers"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type Handlers struct {
	Lesson     *handlers.LessonHandler
	Assessment *handlers.AssessmentHandler
	Health     *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Lesson:     handlers.NewLessonHandler(log, s.Pipeline, s.Catalog),
		Assessment: handlers.NewAssessmentHandler(log, s.Catalog, s.Attempts),
		Health:     handlers.NewHealthHandler(),
	}
}
