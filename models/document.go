package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trạng thái xử lý tài liệu
const (
	DocStatusUploaded   = "Đã tải lên"
	DocStatusExtracting = "Đang trích xuất"
	DocStatusExtracted  = "Đã trích xuất"
	DocStatusError      = "Lỗi"
)

// Document là tài liệu nguồn do người dùng tải lên,
// phần văn bản trích xuất có thể dùng làm source_text để sinh flashcard.
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	OriginalName  string    `gorm:"size:255;not null" json:"original_name"`
	FilePath      string    `gorm:"type:text" json:"file_path"`
	FileType      string    `gorm:"size:10" json:"file_type"`
	FileSize      int64     `json:"file_size"`
	Status        string    `gorm:"size:50" json:"status"`
	ExtractedText string    `gorm:"type:text" json:"extracted_text,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
