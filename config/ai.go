package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vnkhanh/flashcards-backend/services"
)

// LoadOpenRouterConfig đọc cấu hình AI provider từ biến môi trường.
// Thiếu API key thì fail ngay lúc khởi động thay vì lúc có request.
func LoadOpenRouterConfig() (services.OpenRouterConfig, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return services.OpenRouterConfig{}, fmt.Errorf("OPENROUTER_API_KEY chưa cấu hình")
	}

	cfg := services.OpenRouterConfig{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		Model:   os.Getenv("OPENROUTER_MODEL"),
		Debug:   os.Getenv("OPENROUTER_DEBUG") == "true",
	}

	if v := os.Getenv("OPENROUTER_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return services.OpenRouterConfig{}, fmt.Errorf("OPENROUTER_TIMEOUT_SECONDS không hợp lệ: %w", err)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// CheckSupabaseConfig kiểm tra cấu hình Supabase Storage lúc khởi động.
func CheckSupabaseConfig() error {
	if os.Getenv("SUPABASE_URL") == "" || os.Getenv("SUPABASE_KEY") == "" {
		return fmt.Errorf("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}
	return nil
}
