package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/http/response"
	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/modules/generation/extract"
	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
	"github.com/eduforge/lms-backend/internal/platform/apierr"
	"github.com/eduforge/lms-backend/internal/platform/logger"
	"github.com/eduforge/lms-backend/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	// multipartSlack covers form fields and part headers around the file.
	multipartSlack = 1 << 20
)

type LessonHandler struct {
	log      *logger.Logger
	pipeline services.LessonPipeline
	catalog  services.LessonCatalog
}

func NewLessonHandler(log *logger.Logger, pipeline services.LessonPipeline, catalog services.LessonCatalog) *LessonHandler {
	return &LessonHandler{
		log:      log.With("handler", "LessonHandler"),
		pipeline: pipeline,
		catalog:  catalog,
	}
}

// POST /api/lessons/uploads
func (h *LessonHandler) StageUpload(c *gin.Context) {
	req, cleanup, err := h.uploadRequest(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer cleanup()

	draft, err := h.pipeline.Stage(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"review_id": draft.ID,
		"draft":     draft,
		"items":     generation.Flatten(draft.Questions),
	})
}

// POST /api/lessons/uploads/direct
func (h *LessonHandler) DirectUpload(c *gin.Context) {
	req, cleanup, err := h.uploadRequest(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer cleanup()

	saved, err := h.pipeline.ProcessAndSave(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, saved)
}

// GET /api/lessons/reviews/:id
func (h *LessonHandler) GetReview(c *gin.Context) {
	draft, err := h.pipeline.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"draft": draft,
		"items": generation.Flatten(draft.Questions),
	})
}

type saveReviewRequest struct {
	Items      []generation.AuthoredQuestion `json:"items"`
	SectionIDs []uuid.UUID                   `json:"section_ids"`
}

// POST /api/lessons/reviews/:id/save
func (h *LessonHandler) SaveReview(c *gin.Context) {
	var body saveReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
			return
		}
	}
	saved, err := h.pipeline.SaveDraft(c.Request.Context(), c.Param("id"), services.SaveRequest{
		Items:      body.Items,
		SectionIDs: body.SectionIDs,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, saved)
}

type manualLessonRequest struct {
	SubjectID   uuid.UUID                     `json:"subject_id"`
	ProfessorID uuid.UUID                     `json:"professor_id"`
	Title       string                        `json:"title"`
	Status      string                        `json:"status"`
	Items       []generation.AuthoredQuestion `json:"items"`
	SectionIDs  []uuid.UUID                   `json:"section_ids"`
}

// POST /api/lessons/manual
func (h *LessonHandler) CreateManual(c *gin.Context) {
	var body manualLessonRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	saved, err := h.pipeline.CreateManual(c.Request.Context(), services.ManualLessonRequest{
		SubjectID:   body.SubjectID,
		ProfessorID: body.ProfessorID,
		Title:       body.Title,
		Status:      strings.ToLower(strings.TrimSpace(body.Status)),
		Items:       body.Items,
		SectionIDs:  body.SectionIDs,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, saved)
}

// PUT /api/lessons/:id/assessment
func (h *LessonHandler) UpdateAssessment(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var body saveReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	a, err := h.pipeline.UpdateAssessment(c.Request.Context(), id, services.SaveRequest{
		Items:      body.Items,
		SectionIDs: body.SectionIDs,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, a)
}

// DELETE /api/lessons/reviews/:id
func (h *LessonHandler) CancelReview(c *gin.Context) {
	if err := h.pipeline.CancelDraft(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	detail, err := h.catalog.Lesson(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /api/subjects/:id/lessons
func (h *LessonHandler) ListSubjectLessons(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	lessons, err := h.catalog.ListBySubject(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// DELETE /api/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.pipeline.DeleteLesson(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/lessons/:id/publish
func (h *LessonHandler) Publish(c *gin.Context) {
	h.setStatus(c, types.StatusPublished)
}

// POST /api/lessons/:id/unpublish
func (h *LessonHandler) Unpublish(c *gin.Context) {
	h.setStatus(c, types.StatusDraft)
}

func (h *LessonHandler) setStatus(c *gin.Context, status string) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	a, err := h.pipeline.SetAssessmentStatus(c.Request.Context(), id, status)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assessment_id": a.ID, "status": a.Status})
}

// uploadRequest reads the multipart upload form. cleanup closes the file.
func (h *LessonHandler) uploadRequest(c *gin.Context) (services.UploadRequest, func(), error) {
	noop := func() {}
	limit := h.pipeline.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return services.UploadRequest{}, noop, apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", extract.TooLarge(limit))
		}
		return services.UploadRequest{}, noop, apierr.BadRequest("invalid_multipart_form", err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return services.UploadRequest{}, noop, apierr.Unprocessable("validation_failed", errors.New("Please upload a lesson file."))
	}

	subjectID, err := optionalUUID(c.PostForm("subject_id"), "subject_id")
	if err != nil {
		return services.UploadRequest{}, noop, err
	}
	professorID, err := optionalUUID(c.PostForm("professor_id"), "professor_id")
	if err != nil {
		return services.UploadRequest{}, noop, err
	}
	var opts providers.Options
	for field, dst := range map[string]*int{
		"multiple_choice_count": &opts.MultipleChoice,
		"identification_count":  &opts.Identification,
		"true_or_false_count":   &opts.TrueOrFalse,
	} {
		n, err := formCount(c, field)
		if err != nil {
			return services.UploadRequest{}, noop, err
		}
		*dst = n
	}
	opts.Difficulty = strings.ToLower(strings.TrimSpace(c.DefaultPostForm("difficulty", providers.DefaultDifficulty)))

	f, err := fh.Open()
	if err != nil {
		return services.UploadRequest{}, noop, apierr.BadRequest("invalid_upload", err)
	}
	req := services.UploadRequest{
		SubjectID:       subjectID,
		ProfessorID:     professorID,
		Title:           c.PostForm("title"),
		FileName:        fh.Filename,
		DeclaredMime:    fh.Header.Get("Content-Type"),
		Size:            fh.Size,
		Content:         f,
		Options:         opts,
		AssessmentTitle: c.PostForm("assessment_title"),
		AssessmentType:  strings.ToLower(strings.TrimSpace(c.PostForm("assessment_type"))),
	}
	return req, func() { _ = f.Close() }, nil
}
