// Package llm provides a streaming client for the hosted completion API.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qanoon-go/internal/config"
)

// Sentinel errors for the external-API failure taxonomy. Handlers map
// these to user-visible messages; they are never retried except for
// ErrRateLimited, which gets the bounded backoff below.
var (
	ErrUnauthorized = errors.New("llm: api key rejected")
	ErrRateLimited  = errors.New("llm: rate limited")
)

// capacityNotice is streamed in place of an answer when every rate-limit
// retry has been exhausted, matching the upstream daily-quota behaviour.
const capacityNotice = "<h3>Daily Limit Reached</h3>" +
	"Qanoon has answered too many questions today and reached its maximum server capacity. " +
	"Please try again tomorrow when the quota resets."

// StreamWriter receives answer fragments in arrival order. Both the HTTP
// chunked transport and the WebSocket transport implement it.
type StreamWriter interface {
	WriteChunk(data []byte) error
}

// Client defines the interface for an LLM client.
type Client interface {
	// StreamChatMessages calls the chat endpoint with role-based messages
	// and optional generation parameters, forwarding stream fragments to
	// writer as they arrive.
	StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer StreamWriter) error
	// StreamChat is the single-prompt convenience form.
	StreamChat(ctx context.Context, prompt string, writer StreamWriter) error
}

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams overrides the configured sampling parameters.
type GenerationParams struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type groqClient struct {
	cfg    config.LLMConfig
	client *http.Client

	// Rate-limit backoff: sleep attempt*backoffUnit between retries.
	backoffUnit time.Duration
	maxAttempts int
}

// NewClient creates a client for the configured OpenAI-compatible endpoint.
func NewClient(cfg config.LLMConfig) Client {
	return &groqClient{
		cfg:         cfg,
		client:      &http.Client{},
		backoffUnit: 5 * time.Second,
		maxAttempts: 3,
	}
}

// StreamChat sends a single user message without generation overrides.
func (c *groqClient) StreamChat(ctx context.Context, prompt string, writer StreamWriter) error {
	return c.StreamChatMessages(ctx, []Message{{Role: "user", Content: prompt}}, nil, writer)
}

// StreamChatMessages forwards the response stream to writer. A 429 from
// the API is retried up to maxAttempts times with linear backoff; if the
// quota never frees up, the capacity notice is streamed instead of an
// error. Every other failure surfaces immediately, unretried.
func (c *groqClient) StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer StreamWriter) error {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err := c.streamOnce(ctx, messages, gen, writer)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return err
		}

		wait := time.Duration(attempt) * c.backoffUnit
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	// All retries hit the rate limit: most likely the daily quota.
	return writer.WriteChunk([]byte(capacityNotice))
}

func (c *groqClient) streamOnce(ctx context.Context, messages []Message, gen *GenerationParams, writer StreamWriter) error {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	}
	// Explicit generation params win over configured ones.
	if gen != nil {
		reqBody.Temperature = gen.Temperature
		reqBody.TopP = gen.TopP
		reqBody.MaxTokens = gen.MaxTokens
	} else {
		if c.cfg.Generation.Temperature != 0 {
			t := c.cfg.Generation.Temperature
			reqBody.Temperature = &t
		}
		if c.cfg.Generation.TopP != 0 {
			p := c.cfg.Generation.TopP
			reqBody.TopP = &p
		}
		if c.cfg.Generation.MaxTokens != 0 {
			m := c.cfg.Generation.MaxTokens
			reqBody.MaxTokens = &m
		}
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to the stream
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")
			if strings.TrimSpace(data) == "[DONE]" {
				break
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}

			if len(chunk.Choices) > 0 {
				content := chunk.Choices[0].Delta.Content
				if content == "" {
					continue
				}
				if err := writer.WriteChunk([]byte(content)); err != nil {
					return fmt.Errorf("failed to forward stream chunk: %w", err)
				}
			}
		}
	}
	return nil
}
