package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
)

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Lesson {
	tb.Helper()
	content := "lesson content"
	l := &types.Lesson{
		ID:               uuid.New(),
		SubjectID:        uuid.New(),
		ProfessorID:      uuid.New(),
		Title:            title,
		Path:             "lessons/" + title + ".txt",
		FileName:         title + ".txt",
		FileSize:         int64(len(content)),
		MimeType:         "text/plain",
		ExtractedContent: &content,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedAssessment creates an assessment with one item of each type at
// positions 1..3.
func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, status string) *types.Assessment {
	tb.Helper()
	a := &types.Assessment{
		ID:       uuid.New(),
		LessonID: lessonID,
		Title:    "seeded",
		Type:     types.AssessmentTypeQuiz,
		Status:   status,
	}
	if err := tx.WithContext(ctx).Omit("Items", "Sections", "Lesson").Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	items := []*types.AssessmentItem{
		{
			AssessmentID:  a.ID,
			Position:      1,
			Question:      "Pick the first letter",
			Type:          "multiple_choice",
			Choices:       datatypes.JSON([]byte(`{"A":"a","B":"b","C":"c","D":"d"}`)),
			CorrectAnswer: "A",
		},
		{
			AssessmentID:  a.ID,
			Position:      2,
			Question:      "Name the capital of France",
			Type:          "identification",
			CorrectAnswer: "Paris",
		},
		{
			AssessmentID:  a.ID,
			Position:      3,
			Question:      "The sky is blue",
			Type:          "true_or_false",
			CorrectAnswer: "True",
		},
	}
	if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
		tb.Fatalf("seed assessment items: %v", err)
	}
	for _, it := range items {
		a.Items = append(a.Items, *it)
	}
	return a
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, assessmentID uuid.UUID, no int) *types.AssessmentAttempt {
	tb.Helper()
	at := &types.AssessmentAttempt{
		ID:           uuid.New(),
		StudentID:    studentID,
		AssessmentID: assessmentID,
		AttemptNo:    no,
	}
	if err := tx.WithContext(ctx).Omit("Answers").Create(at).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return at
}

func SeedAnswer(tb testing.TB, ctx context.Context, tx *gorm.DB, attemptID uuid.UUID, item types.AssessmentItem, answer string, correct bool) *types.StudentAnswer {
	tb.Helper()
	ans := &types.StudentAnswer{
		ID:               uuid.New(),
		AttemptID:        attemptID,
		AssessmentItemID: item.ID,
		Type:             item.Type,
		Answer:           datatypes.JSON([]byte(fmt.Sprintf("[%q]", answer))),
		IsCorrect:        correct,
	}
	if err := tx.WithContext(ctx).Create(ans).Error; err != nil {
		tb.Fatalf("seed answer: %v", err)
	}
	return ans
}
