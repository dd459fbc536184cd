package lessons

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssessmentTypeQuiz    = "quiz"
	AssessmentTypeRegular = "regular"

	StatusDraft     = "draft"
	StatusPublished = "published"
)

func ValidAssessmentType(t string) bool {
	return t == AssessmentTypeQuiz || t == AssessmentTypeRegular
}

func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// Assessment is a set of items generated from (or authored for) a lesson.
// Students only see published assessments.
type Assessment struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson             *Lesson    `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	ParentAssessmentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_assessment_id,omitempty"`
	Title              string     `gorm:"column:title;not null" json:"title"`
	Type               string     `gorm:"column:type;not null" json:"type"`
	Status             string     `gorm:"column:status;not null;index" json:"status"`

	Items    []AssessmentItem    `gorm:"foreignKey:AssessmentID;references:ID" json:"items,omitempty"`
	Sections []AssessmentSection `gorm:"foreignKey:AssessmentID;references:ID" json:"sections,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Type == "" {
		a.Type = AssessmentTypeQuiz
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	return nil
}

func (a *Assessment) Published() bool { return a.Status == StatusPublished }

// AssessmentItem is one question. Choices is NULL unless the item is
// multiple choice.
type AssessmentItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_item_assessment_position,priority:1" json:"assessment_id"`
	Position      int            `gorm:"column:position;not null;index:idx_item_assessment_position,priority:2" json:"position"`
	Question      string         `gorm:"column:question;type:text;not null" json:"question"`
	Type          string         `gorm:"column:type;not null" json:"type"`
	Choices       datatypes.JSON `gorm:"column:choices" json:"choices,omitempty"`
	CorrectAnswer string         `gorm:"column:correct_answer;type:text;not null" json:"correct_answer"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AssessmentItem) TableName() string { return "assessment_item" }

func (i *AssessmentItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AssessmentSection assigns an assessment to a class section.
type AssessmentSection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assessment_section_pair,priority:1" json:"assessment_id"`
	SectionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assessment_section_pair,priority:2;index" json:"section_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AssessmentSection) TableName() string { return "assessment_section" }

func (s *AssessmentSection) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
