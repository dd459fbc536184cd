package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduforge/lms-backend/internal/platform/apierr"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps err to its HTTP status and writes the envelope. Errors
// that map to 5xx are also attached to the gin context for the request log.
func RespondErr(c *gin.Context, err error) {
	ae := Classify(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	env := ErrorEnvelope{Error: APIError{Message: ae.Error(), Code: ae.Code}}
	var details interface{ Details() []string }
	if errors.As(err, &details) {
		env.Error.Details = details.Details()
	}
	c.JSON(ae.Status, env)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// apiError unwraps an *apierr.Error already present in the chain.
func apiError(err error) (*apierr.Error, bool) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae, true
	}
	return nil, false
}
