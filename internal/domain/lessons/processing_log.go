package lessons

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pipeline stages recorded against a lesson.
const (
	StageUpload       = "upload"
	StageValidation   = "validation"
	StageExtraction   = "extraction"
	StageAIGeneration = "ai_generation"
	StageParsing      = "parsing"
	StageSaving       = "saving"
)

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

type LessonProcessingLog struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson   *Lesson        `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	Stage    string         `gorm:"column:stage;not null;index" json:"stage"`
	Status   string         `gorm:"column:status;not null" json:"status"`
	Message  string         `gorm:"column:message;type:text" json:"message,omitempty"`
	Provider string         `gorm:"column:provider" json:"provider,omitempty"`
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LessonProcessingLog) TableName() string { return "lesson_processing_log" }

func (l *LessonProcessingLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
