// Package lessons holds the persisted models of the lesson-to-assessment
// pipeline.
package lessons

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lesson struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID        uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	ProfessorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"professor_id"`
	Title            string    `gorm:"column:title;not null" json:"title"`
	Path             string    `gorm:"column:path" json:"path,omitempty"`
	FileName         string    `gorm:"column:file_name" json:"file_name,omitempty"`
	FileSize         int64     `gorm:"column:file_size" json:"file_size,omitempty"`
	MimeType         string    `gorm:"column:mime_type" json:"mime_type,omitempty"`
	ExtractedContent *string   `gorm:"column:extracted_content;type:text" json:"extracted_content,omitempty"`

	Assessments []Assessment `gorm:"foreignKey:LessonID;references:ID" json:"assessments,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// HasFile reports whether the lesson was created from an upload.
func (l *Lesson) HasFile() bool { return l.Path != "" }
