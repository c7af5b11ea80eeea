package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/flashcards-backend/models"
	"github.com/vnkhanh/flashcards-backend/services"
)

// flashcardGenerator là phần của services.FlashcardGenerator mà controller cần
type flashcardGenerator interface {
	GenerateFlashcards(ctx context.Context, sourceText, model string) ([]services.GeneratedFlashcard, error)
}

// GenerationController điều phối pipeline:
// validate -> tạo generation record -> sinh flashcard -> lưu -> trả kết quả.
// Dependencies truyền tường minh từ main, không dùng singleton.
type GenerationController struct {
	DB           *gorm.DB
	Generator    flashcardGenerator
	ErrorLog     *services.ErrorLogService
	DefaultModel string
}

type GenerateFlashcardsInput struct {
	SourceText string `json:"source_text" binding:"required"`
	Model      string `json:"model"`
}

// POST /api/generations
func (gc *GenerationController) GenerateFlashcards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input GenerateFlashcardsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	if n := utf8.RuneCountInString(input.SourceText); n < services.SourceTextMinLength || n > services.SourceTextMaxLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Validation failed",
			"details": gin.H{
				"source_text": "độ dài phải nằm trong khoảng " +
					strconv.Itoa(services.SourceTextMinLength) + "–" + strconv.Itoa(services.SourceTextMaxLength) + " ký tự",
				"length": n,
			},
		})
		return
	}

	model := input.Model
	if model == "" {
		model = gc.DefaultModel
	}

	// Giai đoạn 1: tạo generation record
	generation := models.Generation{
		UserID:           userID,
		Model:            model,
		SourceTextLength: utf8.RuneCountInString(input.SourceText),
	}
	if err := gc.DB.Create(&generation).Error; err != nil {
		gc.ErrorLog.LogError(userID, nil, models.ErrCodeGenerationCreate, model, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo generation record"})
		return
	}

	// Giai đoạn 2: gọi AI sinh flashcard (retry nằm trong chat client)
	cards, err := gc.Generator.GenerateFlashcards(c.Request.Context(), input.SourceText, model)
	if err != nil {
		gc.ErrorLog.LogError(userID, &generation.ID, models.ErrCodeFlashcardGeneration, model, err)

		var valErr *services.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không sinh được flashcard từ văn bản"})
		return
	}

	// Giai đoạn 3: lưu flashcard và cập nhật count trong một transaction
	saved := make([]models.Flashcard, 0, len(cards))
	err = gc.DB.Transaction(func(tx *gorm.DB) error {
		for _, card := range cards {
			fc := models.Flashcard{
				UserID:       userID,
				GenerationID: &generation.ID,
				FrontText:    card.FrontText,
				BackText:     card.BackText,
				Creation:     models.CreationAI,
				Status:       true,
			}
			if err := tx.Create(&fc).Error; err != nil {
				return err
			}
			saved = append(saved, fc)
		}
		return tx.Model(&generation).Update("flashcard_count", len(saved)).Error
	})
	if err != nil {
		gc.ErrorLog.LogError(userID, &generation.ID, models.ErrCodeFlashcardSave, model, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được flashcard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generation_id": generation.ID,
		"flashcards":    saved,
	})
}

// GET /api/generations?page&limit&sortOrder
func (gc *GenerationController) GetGenerations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	order := "created_at DESC"
	if c.Query("sortOrder") == "asc" {
		order = "created_at ASC"
	}

	var total int64
	query := gc.DB.Model(&models.Generation{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm generations"})
		return
	}

	var generations []models.Generation
	if err := query.
		Order(order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&generations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    generations,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"has_more": int64(page*limit) < total,
	})
}

// GET /api/admin/error-logs?page&limit&error_code&model
func (gc *GenerationController) GetErrorLogs(c *gin.Context) {
	page, limit := parsePagination(c)

	query := gc.DB.Model(&models.GenerationErrorLog{})
	if code := c.Query("error_code"); code != "" {
		query = query.Where("error_code = ?", code)
	}
	if model := c.Query("model"); model != "" {
		query = query.Where("model = ?", model)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm error logs"})
		return
	}

	var logs []models.GenerationErrorLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy error logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    logs,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"has_more": int64(page*limit) < total,
	})
}

// currentUserID lấy user_id do AuthMiddleware đặt vào context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userUUID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return uuid.Nil, false
	}
	return userUUID, true
}

func parsePagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 10
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
