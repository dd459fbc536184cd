package lessons

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentAttempt struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_student_assessment_no,priority:1" json:"student_id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_student_assessment_no,priority:2;index" json:"assessment_id"`
	AttemptNo    int       `gorm:"column:attempt_no;not null;uniqueIndex:idx_attempt_student_assessment_no,priority:3" json:"attempt_no"`

	Answers []StudentAnswer `gorm:"foreignKey:AttemptID;references:ID" json:"answers,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AssessmentAttempt) TableName() string { return "assessment_attempt" }

func (a *AssessmentAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// StudentAnswer stores a submitted value in list form so multi-value
// answers fit the same column.
type StudentAnswer struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"attempt_id"`
	AssessmentItemID uuid.UUID      `gorm:"type:uuid;not null;index" json:"assessment_item_id"`
	Type             string         `gorm:"column:type;not null" json:"type"`
	Answer           datatypes.JSON `gorm:"column:answer" json:"answer"`
	IsCorrect        bool           `gorm:"column:is_correct;not null" json:"is_correct"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (StudentAnswer) TableName() string { return "student_answer" }

func (a *StudentAnswer) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
