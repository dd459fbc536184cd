// Package generation turns cleaned lesson text into a validated question set:
// it decides between single-request and chunked generation, drives the
// retry-then-failover loop over providers and validates what comes back.
package generation

// ItemType is the kind of an assessment question.
type ItemType string

const (
	TypeMultipleChoice ItemType = "multiple_choice"
	TypeIdentification ItemType = "identification"
	TypeTrueOrFalse    ItemType = "true_or_false"
)

func (t ItemType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeIdentification, TypeTrueOrFalse:
		return true
	}
	return false
}

type MultipleChoiceQuestion struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
}

type IdentificationQuestion struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
}

type TrueOrFalseQuestion struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
}

// QuestionSet groups validated questions by type. Order within each bucket is
// the order the provider (or chunk sequence) produced them.
type QuestionSet struct {
	MultipleChoice []MultipleChoiceQuestion `json:"multiple_choice"`
	Identification []IdentificationQuestion `json:"identification"`
	TrueOrFalse    []TrueOrFalseQuestion    `json:"true_or_false"`
}

func NewQuestionSet() *QuestionSet {
	return &QuestionSet{
		MultipleChoice: []MultipleChoiceQuestion{},
		Identification: []IdentificationQuestion{},
		TrueOrFalse:    []TrueOrFalseQuestion{},
	}
}

// Append concatenates other onto s bucket by bucket.
func (s *QuestionSet) Append(other *QuestionSet) {
	if other == nil {
		return
	}
	s.MultipleChoice = append(s.MultipleChoice, other.MultipleChoice...)
	s.Identification = append(s.Identification, other.Identification...)
	s.TrueOrFalse = append(s.TrueOrFalse, other.TrueOrFalse...)
}

func (s *QuestionSet) Total() int {
	if s == nil {
		return 0
	}
	return len(s.MultipleChoice) + len(s.Identification) + len(s.TrueOrFalse)
}

// Counts returns the number of questions per bucket.
func (s *QuestionSet) Counts() map[ItemType]int {
	return map[ItemType]int{
		TypeMultipleChoice: len(s.MultipleChoice),
		TypeIdentification: len(s.Identification),
		TypeTrueOrFalse:    len(s.TrueOrFalse),
	}
}
