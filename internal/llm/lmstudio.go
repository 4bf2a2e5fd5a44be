package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bowerhall/carydes/internal/logger"
)

const (
	defaultModel   = "local-model"
	requestTimeout = 30 * time.Second
	pingTimeout    = 5 * time.Second
	maxRetries     = 2
)

// The loopback-only check covers the configured URL; refusing redirects
// keeps a compromised local endpoint from bouncing a request elsewhere.
var errRedirect = errors.New("redirects are disabled for the inference endpoint")

type lmStudio struct {
	cfg     Config
	client  *http.Client
	retries int
	backoff time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newLMStudio(cfg Config) *lmStudio {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &lmStudio{
		cfg: cfg,
		client: &http.Client{
			Timeout: requestTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return errRedirect
			},
		},
		retries: maxRetries,
		backoff: time.Second,
	}
}

func (c *lmStudio) Chat(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: c.cfg.SystemPrompt})
	for _, msg := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			logger.Warn("inference retry", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		reply, retryable, err := c.attempt(ctx, jsonBody)
		if err == nil {
			return reply, nil
		}

		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

// attempt performs one completion call. Connection failures, timeouts and
// 5xx answers are transient and worth retrying; anything else is final.
func (c *lmStudio) attempt(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if errors.Is(err, errRedirect) {
			return "", false, fmt.Errorf("inference request: %w", err)
		}
		return "", true, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("inference server error (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("inference error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("malformed inference response: %w", err)
	}

	if parsed.Error != nil {
		return "", false, fmt.Errorf("inference error: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", false, errors.New("no choices in inference response")
	}

	reply := parsed.Choices[0].Message.Content
	if reply == "" {
		return "", false, errors.New("empty completion")
	}

	return reply, false, nil
}

// Ping checks endpoint reachability via the models listing, the cheapest
// call an OpenAI-compatible server answers.
func (c *lmStudio) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/models", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference ping: status %d", resp.StatusCode)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
