package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Mặc định cho client OpenRouter, có thể override qua OpenRouterConfig
const (
	defaultBaseURL        = "https://openrouter.ai/api/v1"
	defaultModel          = "openai/gpt-4o-mini"
	defaultTemperature    = 0.7
	defaultMaxTokens      = 1024
	defaultTimeout        = 30 * time.Second
	defaultMinInterval    = 100 * time.Millisecond
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 1 * time.Second
)

// ChatMessage là một message trong hội thoại chat-completions.
type ChatMessage struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// ResponseFormat yêu cầu provider trả JSON theo schema (structured output).
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

type JSONSchema struct {
	Name   string         `json:"name,omitempty"`
	Strict bool           `json:"strict,omitempty"`
	Schema map[string]any `json:"schema"`
}

// ChatRequest mô tả một lời gọi chat-completions.
// Model/Temperature/MaxTokens bằng zero-value sẽ lấy mặc định từ config.
type ChatRequest struct {
	Messages       []ChatMessage   `json:"messages"`
	Model          string          `json:"model,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

// Content để dạng RawMessage vì provider có thể trả object đã parse
// hoặc chuỗi JSON — tầng generator sẽ phân giải.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenRouterConfig cấu hình client, truyền tường minh thay vì singleton.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MinInterval time.Duration // khoảng cách tối thiểu giữa 2 request
	MaxRetries  int           // số lần retry thêm cho lỗi 5xx
	Debug       bool
}

// OpenRouterClient gọi API chat-completions kiểu OpenAI qua HTTPS,
// có rate-limit, timeout và retry với backoff cho lỗi transient.
type OpenRouterClient struct {
	cfg        OpenRouterConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
}

func NewOpenRouterClient(cfg OpenRouterConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("thiếu OpenRouter API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	return &OpenRouterClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		// burst = 1: mỗi request cách nhau ít nhất MinInterval,
		// áp dụng cho toàn process và cả các lần retry
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		retryDelay: defaultRetryBaseDelay,
	}, nil
}

// DefaultModel trả về model mặc định của client.
func (c *OpenRouterClient) DefaultModel() string {
	return c.cfg.Model
}

func (c *OpenRouterClient) debugf(format string, args ...any) {
	if c.cfg.Debug {
		log.Printf("[OpenRouter] "+format, args...)
	}
}

// Chat gửi request chat-completions và parse toàn bộ response.
// Lỗi 5xx được retry tối đa MaxRetries lần với backoff 1s, 2s, 4s...
// Các lỗi khác (4xx, timeout, cancel, parse) trả về ngay.
func (c *OpenRouterClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Field: "messages", Message: "danh sách messages không được rỗng"}
	}

	body, err := json.Marshal(c.applyDefaults(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		// Retry cũng phải đi qua cổng rate-limit
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ErrRequestCancelled
		}

		resp, err := c.doChat(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var provErr *ProviderError
		if !errors.As(err, &provErr) || !provErr.Transient() || attempt >= c.cfg.MaxRetries {
			return nil, lastErr
		}

		delay := c.retryDelay << attempt // 1s, 2s, 4s
		c.debugf("lỗi transient (status %d), retry sau %s (lần %d/%d)", provErr.Status, delay, attempt+1, c.cfg.MaxRetries)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ErrRequestCancelled
		}
	}
}

// doChat thực hiện đúng một lần gọi HTTP, không retry.
func (c *OpenRouterClient) doChat(ctx context.Context, body []byte) (*ChatResponse, error) {
	respBody, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}
	defer respBody.Close()

	data, err := io.ReadAll(respBody)
	if err != nil {
		return nil, fmt.Errorf("đọc response: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	c.debugf("nhận response id=%s model=%s choices=%d", chatResp.ID, chatResp.Model, len(chatResp.Choices))
	return &chatResp, nil
}

// send gửi request với timeout riêng và phân biệt timeout với cancel.
// Caller chịu trách nhiệm Close body trả về.
func (c *OpenRouterClient) send(ctx context.Context, body []byte) (io.ReadCloser, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("tạo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.debugf("gửi request tới %s (%d bytes)", req.URL, len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		// Cùng một cơ chế abort, phân biệt bằng context của caller
		if ctx.Err() != nil {
			return nil, ErrRequestCancelled
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrRequestTimeout
		}
		return nil, fmt.Errorf("gửi request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, &ProviderError{Status: resp.StatusCode, Body: string(data)}
	}

	// Gắn cancel vào body để timeout còn hiệu lực khi stream đọc dở
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (c *OpenRouterClient) applyDefaults(req ChatRequest) ChatRequest {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}
	if req.Temperature == nil {
		t := c.cfg.Temperature
		req.Temperature = &t
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}
	return req
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
