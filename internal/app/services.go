package app

import (
	"os"

	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/config"
	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/platform/logger"
	"github.com/eduforge/lms-backend/internal/services"
)

type Services struct {
	Generator   *generation.Manager
	Reviews     services.ReviewStore
	Assessments services.AssessmentGenerator
	Pipeline    services.LessonPipeline
	Catalog     services.LessonCatalog
	Attempts    services.AttemptService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, clients *Clients, r Repos) Services {
	log.Info("Wiring services...")

	var reviews services.ReviewStore
	if clients.Redis != nil {
		reviews = services.NewRedisReviewStore(clients.Redis, cfg.Redis.KeyPrefix)
	} else {
		reviews = services.NewMemoryReviewStore()
	}

	generator := generation.NewManager(log, clients.Providers.Ordered(), generation.ManagerConfigFrom(cfg.AI))
	assessments := services.NewAssessmentGenerator(db, log, r.Assessment)

	pipeline := services.NewLessonPipeline(
		db,
		log,
		services.LessonPipelineConfig{
			MaxUploadBytes: cfg.Upload.MaxBytes,
			ReviewTTL:      cfg.Upload.ReviewTTL,
			TempDir:        os.TempDir(),
		},
		clients.Files,
		reviews,
		generator,
		assessments,
		r.Lesson,
		r.Assessment,
		r.ProcessingLog,
	)

	return Services{
		Generator:   generator,
		Reviews:     reviews,
		Assessments: assessments,
		Pipeline:    pipeline,
		Catalog:     services.NewLessonCatalog(log, r.Lesson, r.Assessment, r.ProcessingLog),
		Attempts:    services.NewAttemptService(db, log, r.Assessment, r.Attempt),
	}
}
