package response

import (
	"context"
	"errors"

	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/modules/generation/extract"
	"github.com/eduforge/lms-backend/internal/platform/apierr"
	"github.com/eduforge/lms-backend/internal/services"
)

const (
	msgGenerationFailed = "Failed to generate questions. Please try again later."
	msgDraftExpired     = "Review session expired. Please upload the lesson again."
	msgSaveFailed       = "Failed to save the assessment. Please try again."
)

// Classify maps a service or pipeline error to the status, code and message
// the client sees. Upload problems keep their own message; upstream and
// storage failures get a generic one.
func Classify(err error) *apierr.Error {
	if err == nil {
		return apierr.Internal("internal_error", errors.New("unknown error"))
	}
	if ae, ok := apiError(err); ok {
		return ae
	}

	var (
		ve  *extract.ValidationError
		ee  *extract.ExtractionError
		ave *generation.AuthoredValidationError
		pe  *generation.ParseError
		xe  *generation.ExhaustedError
		pse *generation.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return apierr.Unprocessable("validation_failed", ve)
	case errors.As(err, &ave):
		return apierr.Unprocessable("invalid_questions", errors.New("Please fix the highlighted questions."))
	case errors.As(err, &ee):
		return apierr.Unprocessable("extraction_failed", ee)
	case errors.As(err, &xe), errors.As(err, &pe):
		return apierr.BadGateway("generation_failed", errors.New(msgGenerationFailed))
	case errors.As(err, &pse):
		return apierr.Internal("persistence_failed", errors.New(msgSaveFailed))
	case errors.Is(err, services.ErrDraftNotFound):
		return apierr.NotFound("review_expired", errors.New(msgDraftExpired))
	case errors.Is(err, services.ErrLessonNotFound):
		return apierr.NotFound("lesson_not_found", err)
	case errors.Is(err, services.ErrAssessmentNotFound):
		return apierr.NotFound("assessment_not_found", err)
	case errors.Is(err, services.ErrAttemptNotFound):
		return apierr.NotFound("attempt_not_found", err)
	case errors.Is(err, services.ErrAssessmentNotPublished):
		return apierr.Conflict("assessment_not_published", err)
	case errors.Is(err, services.ErrInvalidStatus):
		return apierr.BadRequest("invalid_status", err)
	case errors.Is(err, context.Canceled):
		return apierr.New(499, "client_closed_request", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(504, "timeout", errors.New("The request timed out."))
	}
	return apierr.Internal("internal_error", errors.New("An unexpected error occurred."))
}
