package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Quiz struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"size:500"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	IsPublic    bool      `json:"is_public" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships. The owner record stays out of serialized output; reads
	// expose an OwnerSummary instead.
	User      User       `json:"-" gorm:"foreignKey:UserID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// OwnerSummary is the slice of the owner record exposed on quiz reads.
type OwnerSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
