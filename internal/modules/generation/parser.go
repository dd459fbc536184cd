package generation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
)

// minAuthoredChoices is the floor for instructor-authored items. Provider
// output is held to the schema's minItems instead.
const minAuthoredChoices = 4

var questionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(providers.QuestionSchema))
})

// Parse checks a raw provider result against the question schema and
// converts it to a QuestionSet. Any violation rejects the whole result.
func Parse(raw providers.RawResult) (*QuestionSet, error) {
	if raw == nil {
		return nil, parseErrorf("empty response")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, parseErrorf("encode response: %v", err)
	}
	if err := validateDocument(b); err != nil {
		return nil, err
	}
	set := NewQuestionSet()
	if err := json.Unmarshal(b, set); err != nil {
		return nil, parseErrorf("decode response: %v", err)
	}
	return set, nil
}

// Validate re-checks a typed set against the question schema.
func Validate(set *QuestionSet) error {
	if set == nil {
		return parseErrorf("empty question set")
	}
	normalized := NewQuestionSet()
	normalized.Append(set)
	b, err := json.Marshal(normalized)
	if err != nil {
		return parseErrorf("encode question set: %v", err)
	}
	return validateDocument(b)
}

func validateDocument(doc []byte) error {
	schema, err := questionSchema()
	if err != nil {
		return fmt.Errorf("compile question schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return parseErrorf("%v", err)
	}
	if result.Valid() {
		return nil
	}
	reasons := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		reasons = append(reasons, e.String())
	}
	return &ParseError{Reason: joinReasons(reasons)}
}

func isTrueFalse(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return true
	}
	return false
}

// AuthoredQuestion is one question as submitted by an instructor, either
// written by hand or edited from a generated draft.
type AuthoredQuestion struct {
	Type          ItemType `json:"type"`
	Question      string   `json:"question"`
	Choices       []string `json:"choices,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
}

// AuthoredValidationError lists every problem found in an authored set.
type AuthoredValidationError struct {
	Problems []string
}

func (e *AuthoredValidationError) Error() string {
	return joinReasons(e.Problems)
}

// Details lists the problems one per entry.
func (e *AuthoredValidationError) Details() []string { return e.Problems }

// FromAuthored validates instructor-submitted questions and groups them into
// a QuestionSet, keeping submission order within each type.
func FromAuthored(items []AuthoredQuestion) (*QuestionSet, error) {
	if len(items) == 0 {
		return nil, &AuthoredValidationError{Problems: []string{"Please add at least one question."}}
	}
	var problems []string
	set := NewQuestionSet()
	for i, it := range items {
		n := i + 1
		q := strings.TrimSpace(it.Question)
		ans := strings.TrimSpace(it.CorrectAnswer)
		if q == "" {
			problems = append(problems, fmt.Sprintf("Question %d: Question text is required.", n))
		}
		if ans == "" {
			problems = append(problems, fmt.Sprintf("Question %d: Correct answer is required.", n))
		}
		switch it.Type {
		case TypeMultipleChoice:
			var choices []string
			for _, c := range it.Choices {
				if c = strings.TrimSpace(c); c != "" {
					choices = append(choices, c)
				}
			}
			if len(choices) < minAuthoredChoices {
				problems = append(problems, fmt.Sprintf("Question %d: Multiple choice questions must have at least %d choices.", n, minAuthoredChoices))
			}
			set.MultipleChoice = append(set.MultipleChoice, MultipleChoiceQuestion{Question: q, Choices: choices, CorrectAnswer: ans})
		case TypeIdentification:
			set.Identification = append(set.Identification, IdentificationQuestion{Question: q, CorrectAnswer: ans})
		case TypeTrueOrFalse:
			if ans != "" && !isTrueFalse(ans) {
				problems = append(problems, fmt.Sprintf("Question %d: True/false answers must be True or False.", n))
			}
			set.TrueOrFalse = append(set.TrueOrFalse, TrueOrFalseQuestion{Question: q, CorrectAnswer: ans})
		default:
			problems = append(problems, fmt.Sprintf("Question %d: Question type must be multiple choice, identification, or true/false.", n))
		}
	}
	if len(problems) > 0 {
		return nil, &AuthoredValidationError{Problems: problems}
	}
	return set, nil
}

// Flatten lists a set's questions in bucket order as authored questions.
func Flatten(set *QuestionSet) []AuthoredQuestion {
	if set == nil {
		return nil
	}
	out := make([]AuthoredQuestion, 0, set.Total())
	for _, q := range set.MultipleChoice {
		out = append(out, AuthoredQuestion{Type: TypeMultipleChoice, Question: q.Question, Choices: q.Choices, CorrectAnswer: q.CorrectAnswer})
	}
	for _, q := range set.Identification {
		out = append(out, AuthoredQuestion{Type: TypeIdentification, Question: q.Question, CorrectAnswer: q.CorrectAnswer})
	}
	for _, q := range set.TrueOrFalse {
		out = append(out, AuthoredQuestion{Type: TypeTrueOrFalse, Question: q.Question, CorrectAnswer: q.CorrectAnswer})
	}
	return out
}
