package controllers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/flashcards-backend/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB tạo DB sqlite in-memory riêng cho từng test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Generation{},
		&models.Flashcard{},
		&models.GenerationErrorLog{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FullName: "Nguyễn Văn Test",
		Email:    uuid.NewString() + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// authAs giả lập AuthMiddleware: set thẳng user_id vào context.
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Set("role", string(models.RoleUser))
		c.Next()
	}
}

func createTestGeneration(t *testing.T, db *gorm.DB, userID uuid.UUID) models.Generation {
	t.Helper()
	gen := models.Generation{
		UserID:           userID,
		Model:            "openai/gpt-4o-mini",
		SourceTextLength: 1500,
	}
	require.NoError(t, db.Create(&gen).Error)
	return gen
}
