package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ChatStreamChunk là một delta trong stream SSE của provider.
type ChatStreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream đọc tuần tự các chunk từ body SSE.
// Không restart được; phải gọi Close trên mọi nhánh thoát.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	client  *OpenRouterClient
	done    bool
}

// StreamChat gửi request với stream=true và trả về stream chunk lười.
// Chuỗi "[DONE]" kết thúc stream (Recv trả io.EOF), chunk hỏng bị bỏ qua.
func (c *OpenRouterClient) StreamChat(ctx context.Context, req ChatRequest) (*ChatStream, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Field: "messages", Message: "danh sách messages không được rỗng"}
	}

	req.Stream = true
	body, err := json.Marshal(c.applyDefaults(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrRequestCancelled
	}

	respBody, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}

	return &ChatStream{
		body:    respBody,
		scanner: bufio.NewScanner(respBody),
		client:  c,
	}, nil
}

// Recv trả về chunk kế tiếp, io.EOF khi gặp "[DONE]" hoặc hết stream.
func (s *ChatStream) Recv() (*ChatStreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			s.done = true
			s.body.Close()
			return nil, io.EOF
		}

		var chunk ChatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Chunk hỏng không làm chết cả stream
			s.client.debugf("bỏ qua chunk không parse được: %v", err)
			continue
		}
		return &chunk, nil
	}

	s.done = true
	s.body.Close()
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("đọc stream: %w", err)
	}
	return nil, io.EOF
}

// Close giải phóng body; an toàn khi gọi nhiều lần.
func (s *ChatStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.body.Close()
}
