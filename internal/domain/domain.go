// Package domain lists the persisted models of every domain package.
package domain

import "github.com/eduforge/lms-backend/internal/domain/lessons"

type (
	Lesson              = lessons.Lesson
	Assessment          = lessons.Assessment
	AssessmentItem      = lessons.AssessmentItem
	AssessmentSection   = lessons.AssessmentSection
	AssessmentAttempt   = lessons.AssessmentAttempt
	StudentAnswer       = lessons.StudentAnswer
	LessonProcessingLog = lessons.LessonProcessingLog
)

// Models returns one zero value per table, parents before children.
func Models() []any {
	return []any{
		&Lesson{},
		&Assessment{},
		&AssessmentItem{},
		&AssessmentSection{},
		&AssessmentAttempt{},
		&StudentAnswer{},
		&LessonProcessingLog{},
	}
}
