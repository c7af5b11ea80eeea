package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generation ghi lại một lượt sinh flashcard bằng AI.
// Chỉ có FlashcardCount được cập nhật sau khi tạo, các trường khác bất biến.
type Generation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User             User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Model            string    `gorm:"size:100;not null" json:"model"`
	SourceTextLength int       `json:"source_text_length"`
	FlashcardCount   int       `json:"flashcard_count"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
