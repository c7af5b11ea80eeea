package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/flashcards-backend/config"
	"github.com/vnkhanh/flashcards-backend/controllers"
	"github.com/vnkhanh/flashcards-backend/routes"
	"github.com/vnkhanh/flashcards-backend/services"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	db := config.InitDB()

	// Cấu hình bắt buộc fail ngay lúc khởi động
	aiCfg, err := config.LoadOpenRouterConfig()
	if err != nil {
		log.Fatal("Cấu hình AI provider lỗi: ", err)
	}
	if err := config.CheckSupabaseConfig(); err != nil {
		log.Fatal("Cấu hình Supabase lỗi: ", err)
	}

	chatClient, err := services.NewOpenRouterClient(aiCfg)
	if err != nil {
		log.Fatal("Không tạo được OpenRouter client: ", err)
	}
	generator := services.NewFlashcardGenerator(chatClient)
	errorLog := services.NewErrorLogService(db)

	ctrl := routes.Controllers{
		Auth: &controllers.AuthController{DB: db},
		Generation: &controllers.GenerationController{
			DB:           db,
			Generator:    generator,
			ErrorLog:     errorLog,
			DefaultModel: chatClient.DefaultModel(),
		},
		Flashcard: &controllers.FlashcardController{DB: db},
		Document:  &controllers.DocumentController{DB: db},
		Health:    &controllers.HealthController{DB: db},
	}

	r := gin.Default()

	// Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, ctrl)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server running at Port:" + port)
	r.Run(":" + port)
}
