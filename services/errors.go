package services

import (
	"errors"
	"fmt"
)

// ValidationError: input của caller nằm ngoài hợp đồng, trả về 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProviderError: AI provider trả về status khác 2xx.
// Status >= 500 được coi là transient và sẽ retry, còn lại trả ngay.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider trả về status %d: %s", e.Status, e.Body)
}

// Transient báo lỗi có nên retry hay không.
func (e *ProviderError) Transient() bool {
	return e.Status >= 500
}

var (
	// Phân biệt 2 nguyên nhân abort: timeout của client và cancel từ caller
	ErrRequestTimeout   = errors.New("request tới provider quá thời gian cho phép")
	ErrRequestCancelled = errors.New("request tới provider bị caller hủy")

	// Provider trả dữ liệu vi phạm hợp đồng sinh flashcard — không retry
	ErrMalformedResponse    = errors.New("nội dung provider trả về không parse được JSON")
	ErrInvalidResponseShape = errors.New("nội dung provider trả về thiếu mảng flashcards")
	ErrLengthViolation      = errors.New("flashcard sinh ra vượt quá độ dài tối đa")
)
