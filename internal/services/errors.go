package services

import "errors"

var (
	ErrLessonNotFound         = errors.New("lesson not found")
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrAssessmentNotPublished = errors.New("assessment is not published")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrInvalidStatus          = errors.New("status must be draft or published")
)
