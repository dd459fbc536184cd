package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduforge/lms-backend/internal/http/response"
	"github.com/eduforge/lms-backend/internal/platform/apierr"
	"github.com/eduforge/lms-backend/internal/platform/logger"
	"github.com/eduforge/lms-backend/internal/services"
)

type AssessmentHandler struct {
	log      *logger.Logger
	catalog  services.LessonCatalog
	attempts services.AttemptService
}

func NewAssessmentHandler(log *logger.Logger, catalog services.LessonCatalog, attempts services.AttemptService) *AssessmentHandler {
	return &AssessmentHandler{
		log:      log.With("handler", "AssessmentHandler"),
		catalog:  catalog,
		attempts: attempts,
	}
}

// GET /api/assessments/:id
// Without include_answers=true the caller is treated as a student: drafts
// are refused and correct answers are blanked.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	forStudent := !strings.EqualFold(c.Query("include_answers"), "true")
	view, err := h.catalog.Assessment(c.Request.Context(), id, forStudent)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

type submitAttemptRequest struct {
	StudentID uuid.UUID         `json:"student_id"`
	Answers   map[string]string `json:"answers"`
}

// POST /api/assessments/:id/attempts
func (h *AssessmentHandler) SubmitAttempt(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var body submitAttemptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if body.StudentID == uuid.Nil {
		response.RespondErr(c, apierr.BadRequest("invalid_student_id", errors.New("student_id is required")))
		return
	}
	answers := make(map[uuid.UUID]string, len(body.Answers))
	for raw, v := range body.Answers {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			// not an item of any assessment
			continue
		}
		answers[itemID] = v
	}
	res, err := h.attempts.Submit(c.Request.Context(), body.StudentID, id, answers)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/assessments/:id/attempts?student_id=
func (h *AssessmentHandler) AttemptHistory(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	studentID, err := optionalUUID(c.Query("student_id"), "student_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if studentID == uuid.Nil {
		response.RespondErr(c, apierr.BadRequest("invalid_student_id", errors.New("student_id is required")))
		return
	}
	hist, err := h.attempts.History(c.Request.Context(), studentID, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, hist)
}

// GET /api/attempts/:id
func (h *AssessmentHandler) GetAttempt(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.attempts.Result(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
