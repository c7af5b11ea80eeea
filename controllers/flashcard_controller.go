package controllers

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/flashcards-backend/models"
	"github.com/vnkhanh/flashcards-backend/services"
)

type FlashcardController struct {
	DB *gorm.DB
}

type SaveFlashcardInput struct {
	FrontText string `json:"front_text" binding:"required"`
	BackText  string `json:"back_text" binding:"required"`
	Creation  string `json:"creation"` // "ai" (mặc định) hoặc "ai-edited" khi đã sửa
}

type SaveFlashcardsInput struct {
	Flashcards   []SaveFlashcardInput `json:"flashcards"`
	GenerationID string               `json:"generation_id" binding:"required"`
}

// POST /api/flashcards
// Lưu các proposal người dùng đã chấp nhận. Mảng rỗng là no-op hợp lệ.
func (fc *FlashcardController) SaveAcceptedFlashcards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input SaveFlashcardsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	generationID, err := uuid.Parse(input.GenerationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "generation_id không hợp lệ"})
		return
	}

	for i, card := range input.Flashcards {
		if utf8.RuneCountInString(card.FrontText) > services.FlashcardTextMaxLength ||
			utf8.RuneCountInString(card.BackText) > services.FlashcardTextMaxLength {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Nội dung flashcard vượt quá độ dài tối đa",
				"details": gin.H{"index": i, "max_length": services.FlashcardTextMaxLength},
			})
			return
		}
		if card.Creation != "" && card.Creation != string(models.CreationAI) && card.Creation != string(models.CreationAIEdited) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "creation không hợp lệ"})
			return
		}
	}

	// Không có card nào được chấp nhận: trả danh sách rỗng, không phải lỗi
	if len(input.Flashcards) == 0 {
		c.JSON(http.StatusOK, []models.Flashcard{})
		return
	}

	var generation models.Generation
	if err := fc.DB.First(&generation, "id = ? AND user_id = ?", generationID, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy generation"})
		return
	}

	saved := make([]models.Flashcard, 0, len(input.Flashcards))
	err = fc.DB.Transaction(func(tx *gorm.DB) error {
		for _, card := range input.Flashcards {
			creation := models.FlashcardCreation(card.Creation)
			if creation == "" {
				creation = models.CreationAI
			}
			m := models.Flashcard{
				UserID:       userID,
				GenerationID: &generation.ID,
				FrontText:    card.FrontText,
				BackText:     card.BackText,
				Creation:     creation,
				Status:       true,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			saved = append(saved, m)
		}
		return tx.Model(&generation).
			Update("flashcard_count", gorm.Expr("flashcard_count + ?", len(saved))).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được flashcard"})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// GET /api/flashcards?page&limit&sortBy&sortOrder&creation&status
func (fc *FlashcardController) GetFlashcards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)

	query := fc.DB.Model(&models.Flashcard{}).Where("user_id = ?", userID)

	if creation := c.Query("creation"); creation != "" {
		query = query.Where("creation = ?", creation)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status == "true")
	}

	sortBy := "created_at"
	if c.Query("sortBy") == "updated_at" {
		sortBy = "updated_at"
	}
	sortOrder := "DESC"
	if c.Query("sortOrder") == "asc" {
		sortOrder = "ASC"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm flashcards"})
		return
	}

	var flashcards []models.Flashcard
	if err := query.
		Order(sortBy + " " + sortOrder).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&flashcards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy flashcards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    flashcards,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"has_more": int64(page*limit) < total,
	})
}

type UpdateFlashcardInput struct {
	FrontText *string `json:"front_text"`
	BackText  *string `json:"back_text"`
	Status    *bool   `json:"status"`
}

// PATCH /api/flashcards/:id
// Sửa nội dung card "ai" sẽ chuyển provenance sang "ai-edited".
func (fc *FlashcardController) UpdateFlashcard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id không hợp lệ"})
		return
	}

	var input UpdateFlashcardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	var card models.Flashcard
	if err := fc.DB.First(&card, "id = ? AND user_id = ?", cardID, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy flashcard"})
		return
	}

	contentChanged := false
	if input.FrontText != nil && *input.FrontText != card.FrontText {
		if utf8.RuneCountInString(*input.FrontText) > services.FlashcardTextMaxLength || *input.FrontText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "front_text không hợp lệ"})
			return
		}
		card.FrontText = *input.FrontText
		contentChanged = true
	}
	if input.BackText != nil && *input.BackText != card.BackText {
		if utf8.RuneCountInString(*input.BackText) > services.FlashcardTextMaxLength || *input.BackText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "back_text không hợp lệ"})
			return
		}
		card.BackText = *input.BackText
		contentChanged = true
	}
	if input.Status != nil {
		card.Status = *input.Status
	}

	if contentChanged && card.Creation == models.CreationAI {
		card.Creation = models.CreationAIEdited
	}

	if err := fc.DB.Save(&card).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không cập nhật được flashcard"})
		return
	}

	c.JSON(http.StatusOK, card)
}
