package controllers

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/flashcards-backend/models"
	"github.com/vnkhanh/flashcards-backend/services"
	"github.com/vnkhanh/flashcards-backend/utils"
	"github.com/vnkhanh/flashcards-backend/ws"
)

type DocumentController struct {
	DB *gorm.DB
}

// POST /api/documents
// Tải tài liệu nguồn (.pdf, .txt) lên Supabase Storage rồi trích xuất văn bản.
// Văn bản trích xuất dùng làm source_text cho POST /api/generations.
func (dc *DocumentController) UploadDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không có file đính kèm"})
		return
	}
	if file.Size > 20*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File vượt quá 20MB"})
		return
	}

	ext := filepath.Ext(file.Filename)
	inputType, err := services.InputTypeFromExt(ext)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docID := uuid.New()

	publicURL, err := utils.UploadFileToSupabase(file, docID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi upload Supabase", "details": err.Error()})
		return
	}

	doc := models.Document{
		ID:           docID,
		UserID:       userID,
		OriginalName: file.Filename,
		FilePath:     publicURL,
		FileType:     strings.TrimPrefix(ext, "."),
		FileSize:     file.Size,
		Status:       models.DocStatusUploaded,
	}
	if err := dc.DB.Create(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được tài liệu"})
		return
	}

	dc.DB.Model(&doc).Update("status", models.DocStatusExtracting)
	ws.SendStatusUpdate(docID.String(), models.DocStatusExtracting, "")

	extracted, err := services.ExtractText(file, inputType)
	if err != nil {
		dc.DB.Model(&doc).Update("status", models.DocStatusError)
		ws.SendStatusUpdate(docID.String(), models.DocStatusError, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể trích xuất nội dung", "details": err.Error()})
		return
	}

	dc.DB.Model(&doc).Updates(map[string]interface{}{
		"status":         models.DocStatusExtracted,
		"extracted_text": extracted,
	})
	ws.SendStatusUpdate(docID.String(), models.DocStatusExtracted, "")

	doc.Status = models.DocStatusExtracted
	doc.ExtractedText = extracted

	c.JSON(http.StatusOK, gin.H{
		"message":          "Tải lên và trích xuất thành công",
		"document":         doc,
		"extracted_length": utf8.RuneCountInString(extracted),
	})
}

// GET /api/documents
func (dc *DocumentController) GetDocuments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)

	query := dc.DB.Model(&models.Document{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm tài liệu"})
		return
	}

	var docs []models.Document
	if err := query.
		Select("id", "user_id", "original_name", "file_path", "file_type", "file_size", "status", "created_at", "updated_at").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&docs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy tài liệu"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    docs,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"has_more": int64(page*limit) < total,
	})
}

// GET /api/documents/:id — kèm extracted_text để UI đổ vào ô source text
func (dc *DocumentController) GetDocumentDetail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var doc models.Document
	if err := dc.DB.First(&doc, "id = ? AND user_id = ?", c.Param("id"), userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy document"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// DELETE /api/documents/:id
func (dc *DocumentController) DeleteDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var doc models.Document
	if err := dc.DB.First(&doc, "id = ? AND user_id = ?", c.Param("id"), userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy document"})
		return
	}

	// Xóa file trên storage trước, lỗi storage không chặn việc xóa record
	if err := utils.DeleteFileFromSupabase(doc.FilePath); err != nil {
		log.Println("Không xóa được file trên storage:", err)
	}

	if err := dc.DB.Delete(&doc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không xóa được document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa tài liệu"})
}
