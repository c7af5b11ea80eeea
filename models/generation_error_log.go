package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mã lỗi cho từng giai đoạn của pipeline sinh flashcard
const (
	ErrCodeGenerationCreate    = "GENERATION_CREATE_ERROR"
	ErrCodeFlashcardGeneration = "FLASHCARD_GENERATION_ERROR"
	ErrCodeFlashcardSave       = "FLASHCARD_SAVE_ERROR"
)

// GenerationErrorLog lưu lỗi của pipeline để admin tra cứu.
// Việc ghi log là best-effort, không bao giờ làm hỏng request đang xử lý.
type GenerationErrorLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	GenerationID *uuid.UUID `gorm:"type:uuid" json:"generation_id"`
	ErrorCode    string     `gorm:"size:50;not null;index" json:"error_code"`
	ErrorMessage string     `gorm:"type:text;not null" json:"error_message"`
	Model        string     `gorm:"size:100" json:"model"`
	StackTrace   string     `gorm:"type:text" json:"stack_trace,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (l *GenerationErrorLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
