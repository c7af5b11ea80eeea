package services

import (
	"log"
	"runtime/debug"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/flashcards-backend/models"
)

// ErrorLogService ghi lỗi của pipeline sinh flashcard vào DB.
// Ghi log là best-effort: lỗi khi ghi chỉ in ra console, không propagate.
type ErrorLogService struct {
	db *gorm.DB
}

func NewErrorLogService(db *gorm.DB) *ErrorLogService {
	return &ErrorLogService{db: db}
}

// LogError lưu một dòng GenerationErrorLog kèm stack trace hiện tại.
func (s *ErrorLogService) LogError(userID uuid.UUID, generationID *uuid.UUID, code, model string, cause error) {
	entry := models.GenerationErrorLog{
		UserID:       userID,
		GenerationID: generationID,
		ErrorCode:    code,
		ErrorMessage: cause.Error(),
		Model:        model,
		StackTrace:   string(debug.Stack()),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("Không ghi được error log (%s): %v", code, err)
	}
}
