package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/knograph/knograph-backend/internal/platform/envutil"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

// Client is the chat-completion client used for dynamic explanations.
// The API is OpenAI compatible, so the same client works against any
// compatible base URL.
type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

// NewFromEnv builds a client from GROQ_* env vars. Returns (nil, nil)
// when GROQ_API_KEY is unset so callers can treat the model as an
// optional collaborator.
func NewFromEnv(baseLog *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(envutil.String("GROQ_API_KEY", ""))
	if apiKey == "" {
		return nil, nil
	}
	baseURL := strings.TrimRight(envutil.String("GROQ_BASE_URL", "https://api.groq.com/openai/v1"), "/")
	model := envutil.String("GROQ_MODEL", "llama-3.3-70b-versatile")
	timeout := envutil.Duration("GROQ_TIMEOUT", 30*time.Second)
	maxRetries := envutil.Int("GROQ_MAX_RETRIES", 2)

	return &client{
		log:        baseLog.With("service", "GroqClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
	}
	body, err := json.Marshal(&req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		text, retryable, err := c.doChat(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn("Chat completion failed, retrying", "attempt", attempt, "error", err)
	}
	return "", lastErr
}

func (c *client) doChat(ctx context.Context, body []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}
	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return "", true, fmt.Errorf("chat completion status %d: %s", httpResp.StatusCode, truncate(raw, 200))
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("chat completion status %d: %s", httpResp.StatusCode, truncate(raw, 200))
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", false, fmt.Errorf("decode chat response: %w", err)
	}
	if resp.Error != nil {
		return "", false, fmt.Errorf("chat completion error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", false, fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
