package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is embedded in its quiz and never addressed on its own. Options
// live in the question row as a JSON-serialized array so their order survives
// round trips exactly as submitted.
type Question struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuizID       uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	Text         string    `json:"text" gorm:"size:500;not null"`
	Options      []string  `json:"options" gorm:"serializer:json;not null"`
	CorrectIndex int       `json:"correct_index" gorm:"not null"`
	Position     int       `json:"position" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
