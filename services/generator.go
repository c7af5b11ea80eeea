package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Ràng buộc độ dài cho pipeline sinh flashcard
const (
	SourceTextMinLength    = 1000
	SourceTextMaxLength    = 10000
	FlashcardTextMaxLength = 1000
)

// GeneratedFlashcard là flashcard do AI sinh, chưa lưu DB.
type GeneratedFlashcard struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
	Creation  string `json:"creation"`
}

// ChatCompleter là phần của OpenRouterClient mà generator cần,
// tách interface để test với fake.
type ChatCompleter interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	DefaultModel() string
}

// FlashcardGenerator biến source text thành flashcard qua chat-completions
// với structured output.
type FlashcardGenerator struct {
	chat ChatCompleter
}

func NewFlashcardGenerator(chat ChatCompleter) *FlashcardGenerator {
	return &FlashcardGenerator{chat: chat}
}

var systemPrompt = fmt.Sprintf(`You are an expert at creating educational flashcards. Create flashcards from the provided text.
Each flashcard should follow these rules:
1. Front should contain a clear, concise question or concept
2. Back should contain a comprehensive but focused answer
3. Both sides should be self-contained and make sense independently
4. Use clear, simple language
5. Avoid overly complex or compound cards
6. Focus on key concepts and important details
7. Each side must not exceed %d characters`, FlashcardTextMaxLength)

func flashcardSchema() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   "flashcards",
			Strict: true,
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"flashcards": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"front_text": map[string]any{"type": "string", "maxLength": FlashcardTextMaxLength},
								"back_text":  map[string]any{"type": "string", "maxLength": FlashcardTextMaxLength},
							},
							"required": []string{"front_text", "back_text"},
						},
					},
				},
				"required": []string{"flashcards"},
			},
		},
	}
}

// GenerateFlashcards sinh flashcard từ source text.
// Validate độ dài trước khi gọi mạng; mọi card trả về đều mang creation="ai".
func (g *FlashcardGenerator) GenerateFlashcards(ctx context.Context, sourceText, model string) ([]GeneratedFlashcard, error) {
	n := utf8.RuneCountInString(sourceText)
	if n < SourceTextMinLength {
		return nil, &ValidationError{Field: "source_text", Message: fmt.Sprintf("văn bản phải có ít nhất %d ký tự", SourceTextMinLength)}
	}
	if n > SourceTextMaxLength {
		return nil, &ValidationError{Field: "source_text", Message: fmt.Sprintf("văn bản không được vượt quá %d ký tự", SourceTextMaxLength)}
	}

	if model == "" {
		model = g.chat.DefaultModel()
	}

	resp, err := g.chat.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sourceText},
		},
		Model:          model,
		ResponseFormat: flashcardSchema(),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, ErrInvalidResponseShape
	}

	payload, err := parseFlashcardContent(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	cards := make([]GeneratedFlashcard, 0, len(payload.Flashcards))
	for _, fc := range payload.Flashcards {
		// Schema của provider chỉ mang tính khuyến nghị, phải kiểm tra lại
		if utf8.RuneCountInString(fc.FrontText) > FlashcardTextMaxLength ||
			utf8.RuneCountInString(fc.BackText) > FlashcardTextMaxLength {
			return nil, fmt.Errorf("%w (tối đa %d ký tự mỗi mặt)", ErrLengthViolation, FlashcardTextMaxLength)
		}
		cards = append(cards, GeneratedFlashcard{
			FrontText: fc.FrontText,
			BackText:  fc.BackText,
			Creation:  "ai",
		})
	}
	return cards, nil
}

type flashcardPayload struct {
	Flashcards []struct {
		FrontText string `json:"front_text"`
		BackText  string `json:"back_text"`
	} `json:"flashcards"`
}

// parseFlashcardContent phân giải content theo kiểu tagged union:
// thử parse object trước, nếu là chuỗi JSON thì bóc chuỗi rồi parse tiếp.
func parseFlashcardContent(raw json.RawMessage) (*flashcardPayload, error) {
	if len(raw) == 0 {
		return nil, ErrMalformedResponse
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var text string
	switch probe.(type) {
	case string:
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		text = stripMarkdownFences(text)
	case map[string]any:
		text = string(raw)
	default:
		return nil, ErrInvalidResponseShape
	}

	var payload flashcardPayload
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Flashcards == nil {
		return nil, ErrInvalidResponseShape
	}
	return &payload, nil
}

// Một số model vẫn bọc JSON trong code block markdown dù đã yêu cầu schema
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
