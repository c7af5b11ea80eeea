package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GeneratedCard là flashcard server trả về sau khi sinh.
type GeneratedCard struct {
	ID        string `json:"id"`
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
}

type GenerateResult struct {
	GenerationID string          `json:"generation_id"`
	Flashcards   []GeneratedCard `json:"flashcards"`
}

// FlashcardToSave là projection của proposal đã chấp nhận.
type FlashcardToSave struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
	Creation  string `json:"creation,omitempty"`
}

type SavedFlashcard struct {
	ID           string `json:"id"`
	FrontText    string `json:"front_text"`
	BackText     string `json:"back_text"`
	Creation     string `json:"creation"`
	GenerationID string `json:"generation_id"`
	Status       bool   `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Client gọi backend flashcards qua HTTP, implement API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{},
	}
}

// GenerateFlashcards gọi POST /api/generations.
func (c *Client) GenerateFlashcards(ctx context.Context, sourceText, model string) (*GenerateResult, error) {
	payload := map[string]string{"source_text": sourceText}
	if model != "" {
		payload["model"] = model
	}

	var result GenerateResult
	if err := c.post(ctx, "/api/generations", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveFlashcards gọi POST /api/flashcards với generation_id chung cho cả batch.
func (c *Client) SaveFlashcards(ctx context.Context, generationID string, cards []FlashcardToSave) ([]SavedFlashcard, error) {
	payload := map[string]any{
		"generation_id": generationID,
		"flashcards":    cards,
	}

	var result []SavedFlashcard
	if err := c.post(ctx, "/api/flashcards", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("tạo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gửi request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("đọc response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Server trả {"error": "..."} — lấy message cho UI
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("%s (status %d)", errBody.Error, resp.StatusCode)
		}
		return fmt.Errorf("request thất bại với status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
