package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/eduforge/lms-backend/internal/http/handlers"
	httpMW "github.com/eduforge/lms-backend/internal/http/middleware"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	LessonHandler     *httpH.LessonHandler
	AssessmentHandler *httpH.AssessmentHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Lessons
		if cfg.LessonHandler != nil {
			api.POST("/lessons/uploads", cfg.LessonHandler.StageUpload)
			api.POST("/lessons/uploads/direct", cfg.LessonHandler.DirectUpload)
			api.GET("/lessons/reviews/:id", cfg.LessonHandler.GetReview)
			api.POST("/lessons/reviews/:id/save", cfg.LessonHandler.SaveReview)
			api.DELETE("/lessons/reviews/:id", cfg.LessonHandler.CancelReview)
			api.POST("/lessons/manual", cfg.LessonHandler.CreateManual)
			api.GET("/lessons/:id", cfg.LessonHandler.GetLesson)
			api.DELETE("/lessons/:id", cfg.LessonHandler.DeleteLesson)
			api.POST("/lessons/:id/publish", cfg.LessonHandler.Publish)
			api.POST("/lessons/:id/unpublish", cfg.LessonHandler.Unpublish)
			api.PUT("/lessons/:id/assessment", cfg.LessonHandler.UpdateAssessment)
			api.GET("/subjects/:id/lessons", cfg.LessonHandler.ListSubjectLessons)
		}

		// Assessments
		if cfg.AssessmentHandler != nil {
			api.GET("/assessments/:id", cfg.AssessmentHandler.GetAssessment)
			api.POST("/assessments/:id/attempts", cfg.AssessmentHandler.SubmitAttempt)
			api.GET("/assessments/:id/attempts", cfg.AssessmentHandler.AttemptHistory)
			api.GET("/attempts/:id", cfg.AssessmentHandler.GetAttempt)
		}
	}

	return r
}
