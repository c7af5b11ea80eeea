package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/flashcards-backend/models"
	"github.com/vnkhanh/flashcards-backend/services"
)

type fakeGenerator struct {
	calls int
	cards []services.GeneratedFlashcard
	err   error
}

func (f *fakeGenerator) GenerateFlashcards(ctx context.Context, sourceText, model string) ([]services.GeneratedFlashcard, error) {
	f.calls++
	return f.cards, f.err
}

func generationRouter(db *gorm.DB, gen *fakeGenerator, userID uuid.UUID) *gin.Engine {
	gc := &GenerationController{
		DB:           db,
		Generator:    gen,
		ErrorLog:     services.NewErrorLogService(db),
		DefaultModel: "openai/gpt-4o-mini",
	}
	r := gin.New()
	r.Use(authAs(userID))
	r.POST("/api/generations", gc.GenerateFlashcards)
	r.GET("/api/generations", gc.GetGenerations)
	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateFlashcardsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	gen := &fakeGenerator{cards: []services.GeneratedFlashcard{
		{FrontText: "Q1", BackText: "A1", Creation: "ai"},
		{FrontText: "Q2", BackText: "A2", Creation: "ai"},
	}}
	r := generationRouter(db, gen, user.ID)

	w := postJSON(r, "/api/generations", gin.H{"source_text": strings.Repeat("a", 1000)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		GenerationID uuid.UUID          `json:"generation_id"`
		Flashcards   []models.Flashcard `json:"flashcards"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Flashcards, 2)
	assert.NotEqual(t, uuid.Nil, resp.GenerationID)

	// Generation record được tạo và đếm đúng số card
	var generation models.Generation
	require.NoError(t, db.First(&generation, "id = ?", resp.GenerationID).Error)
	assert.Equal(t, user.ID, generation.UserID)
	assert.Equal(t, 2, generation.FlashcardCount)
	assert.Equal(t, "openai/gpt-4o-mini", generation.Model)

	// Mọi card đều tham chiếu generation và mang provenance ai
	var cards []models.Flashcard
	require.NoError(t, db.Find(&cards, "user_id = ?", user.ID).Error)
	require.Len(t, cards, 2)
	for _, card := range cards {
		require.NotNil(t, card.GenerationID)
		assert.Equal(t, resp.GenerationID, *card.GenerationID)
		assert.Equal(t, models.CreationAI, card.Creation)
		assert.True(t, card.Status)
	}
}

func TestGenerateFlashcardsValidation(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	gen := &fakeGenerator{}
	r := generationRouter(db, gen, user.ID)

	cases := map[string]any{
		"thiếu source_text": gin.H{},
		"quá ngắn":          gin.H{"source_text": strings.Repeat("a", 999)},
		"quá dài":           gin.H{"source_text": strings.Repeat("a", 10001)},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := postJSON(r, "/api/generations", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	assert.Zero(t, gen.calls, "request không hợp lệ không được gọi generator")

	var count int64
	db.Model(&models.Generation{}).Count(&count)
	assert.Zero(t, count, "request không hợp lệ không được tạo generation record")
}

func TestGenerateFlashcardsGeneratorFailureLogsError(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	gen := &fakeGenerator{err: &services.ProviderError{Status: 502, Body: "bad gateway"}}
	r := generationRouter(db, gen, user.ID)

	w := postJSON(r, "/api/generations", gin.H{"source_text": strings.Repeat("a", 1000)})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Lỗi phải được ghi vào error log kèm mã giai đoạn
	var logs []models.GenerationErrorLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ErrCodeFlashcardGeneration, logs[0].ErrorCode)
	assert.Equal(t, "openai/gpt-4o-mini", logs[0].Model)
	assert.Contains(t, logs[0].ErrorMessage, "502")

	// Response không được lộ chi tiết nội bộ
	assert.NotContains(t, w.Body.String(), "bad gateway")
}

func TestGetGenerationsPagination(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	other := createTestUser(t, db)
	for i := 0; i < 3; i++ {
		createTestGeneration(t, db, user.ID)
	}
	createTestGeneration(t, db, other.ID)

	r := generationRouter(db, &fakeGenerator{}, user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/generations?page=1&limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items   []models.Generation `json:"items"`
		Total   int64               `json:"total"`
		HasMore bool                `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(3), resp.Total, "chỉ đếm generation của user hiện tại")
	assert.True(t, resp.HasMore)

	req = httptest.NewRequest(http.MethodGet, "/api/generations?page=2&limit=2", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
	assert.False(t, resp.HasMore)
}
