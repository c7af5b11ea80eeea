package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashcardCreation đánh dấu nguồn gốc của flashcard.
type FlashcardCreation string

const (
	CreationAI       FlashcardCreation = "ai"        // AI sinh, chưa chỉnh sửa
	CreationManual   FlashcardCreation = "manual"    // Người dùng tự tạo
	CreationAIEdited FlashcardCreation = "ai-edited" // AI sinh, người dùng đã sửa
)

type Flashcard struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User              `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	GenerationID *uuid.UUID        `gorm:"type:uuid;index" json:"generation_id"`
	Generation   *Generation       `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	FrontText    string            `gorm:"type:text;not null" json:"front_text"`
	BackText     string            `gorm:"type:text;not null" json:"back_text"`
	Creation     FlashcardCreation `gorm:"type:varchar(20);not null;default:'manual'" json:"creation"`
	Status       bool              `gorm:"not null;default:true" json:"status"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
