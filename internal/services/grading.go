package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"

	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/modules/generation"
)

// CompareAnswer grades one response. Multiple choice must match exactly
// after trimming; identification and true/false ignore case. Unknown types
// are never correct.
func CompareAnswer(itemType, student, correct string) bool {
	s := strings.TrimSpace(student)
	c := strings.TrimSpace(correct)
	switch generation.ItemType(itemType) {
	case generation.TypeMultipleChoice:
		return s == c
	case generation.TypeIdentification, generation.TypeTrueOrFalse:
		return strings.EqualFold(s, c)
	default:
		return false
	}
}

// FormatAnswer is the stored form of a response: a one-element list, with
// true/false capitalised.
func FormatAnswer(itemType, answer string) []string {
	if generation.ItemType(itemType) == generation.TypeTrueOrFalse {
		a := strings.ToLower(strings.TrimSpace(answer))
		if a != "" {
			a = strings.ToUpper(a[:1]) + a[1:]
		}
		return []string{a}
	}
	return []string{answer}
}

// Score is the percentage of correct items over all items, rounded to two
// decimals.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}

type AttemptGrade struct {
	Total      int     `json:"total_questions"`
	Answered   int     `json:"answered_questions"`
	Correct    int     `json:"correct_answers"`
	Wrong      int     `json:"wrong_answers"`
	Unanswered int     `json:"no_answer"`
	Score      float64 `json:"score"`
}

// GradeAttempt re-grades stored answers against the assessment's items.
// Answers to items not in the list are ignored; items without an answer
// count toward Total only.
func GradeAttempt(items []types.AssessmentItem, answers []types.StudentAnswer) AttemptGrade {
	byID := make(map[uuid.UUID]types.AssessmentItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	g := AttemptGrade{Total: len(items)}
	seen := map[uuid.UUID]bool{}
	for _, a := range answers {
		it, ok := byID[a.AssessmentItemID]
		if !ok || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		g.Answered++
		if CompareAnswer(it.Type, StoredAnswer(a), it.CorrectAnswer) {
			g.Correct++
		}
	}
	g.Wrong = g.Answered - g.Correct
	g.Unanswered = g.Total - g.Answered
	g.Score = Score(g.Correct, g.Total)
	return g
}

// StoredAnswer returns the first value of a stored answer list.
func StoredAnswer(a types.StudentAnswer) string {
	if len(a.Answer) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(a.Answer, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return list[0]
	}
	var single string
	if err := json.Unmarshal(a.Answer, &single); err == nil {
		return single
	}
	return ""
}
