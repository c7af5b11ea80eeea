package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/flashcards-backend/controllers"
	"github.com/vnkhanh/flashcards-backend/middleware"
	"github.com/vnkhanh/flashcards-backend/ws"
)

// Controllers gom các controller đã khởi tạo sẵn từ main.
type Controllers struct {
	Auth       *controllers.AuthController
	Generation *controllers.GenerationController
	Flashcard  *controllers.FlashcardController
	Document   *controllers.DocumentController
	Health     *controllers.HealthController
}

func SetupRouter(r *gin.Engine, ctrl Controllers) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", ctrl.Health.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}

	user := api.Group("")
	{
		user.Use(middleware.AuthMiddleware())

		// Pipeline sinh flashcard bằng AI
		user.POST("/generations", ctrl.Generation.GenerateFlashcards)
		user.GET("/generations", ctrl.Generation.GetGenerations)

		// Quản lý flashcards
		user.POST("/flashcards", ctrl.Flashcard.SaveAcceptedFlashcards)
		user.GET("/flashcards", ctrl.Flashcard.GetFlashcards)
		user.PATCH("/flashcards/:id", ctrl.Flashcard.UpdateFlashcard)

		// Tài liệu nguồn
		user.POST("/documents", ctrl.Document.UploadDocument)
		user.GET("/documents", ctrl.Document.GetDocuments)
		user.GET("/documents/:id", ctrl.Document.GetDocumentDetail)
		user.DELETE("/documents/:id", ctrl.Document.DeleteDocument)
	}

	admin := api.Group("/admin")
	{
		admin.Use(middleware.AuthMiddleware(), middleware.RequireRoles("admin"))
		admin.GET("/error-logs", ctrl.Generation.GetErrorLogs)
	}

	r.GET("/ws/document/:id", ws.HandleDocumentWebSocket)

	return r
}
