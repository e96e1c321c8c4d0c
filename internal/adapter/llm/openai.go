// Package llm implements ports.ChatCompleter for the chat backends the app
// can talk to.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	// DefaultXAIBaseURL is the OpenAI-compatible endpoint of x.ai.
	DefaultXAIBaseURL = "https://api.x.ai/v1"

	// DefaultXAIModel is the model the app asks for on x.ai.
	DefaultXAIModel = "grok-beta"
)

// OpenAIConfig configures an OpenAI-compatible chat backend.
type OpenAIConfig struct {
	// Service names the backend in errors and logs (e.g. "xai")
	Service    string
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAI talks to any backend exposing POST /chat/completions.
type OpenAI struct {
	service    string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAI creates a chat client with x.ai defaults for empty fields.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Service == "" {
		cfg.Service = "xai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultXAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultXAIModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &OpenAI{
		service:    cfg.Service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With(slog.String("adapter", cfg.Service)),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatError covers both {"error":{"message":..}} and {"error":".."} bodies.
type chatError struct {
	Error json.RawMessage `json:"error"`
}

func (e chatError) message() string {
	if len(e.Error) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(e.Error, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Error, &obj) == nil {
		return obj.Message
	}
	return ""
}

// Complete sends the messages and returns the first choice's content.
// A response without choices yields "".
func (c *OpenAI) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	body := chatRequest{Model: c.model, Messages: make([]chatMessage, 0, len(messages))}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", domain.NewServiceError(c.service, "chat", 0, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewServiceError(c.service, "chat", 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := resp.Status
		var ce chatError
		if json.Unmarshal(raw, &ce) == nil && ce.message() != "" {
			msg = ce.message()
		}
		return "", domain.NewServiceError(c.service, "chat", resp.StatusCode, msg, nil)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.NewParseError(c.service+".chat", "decode response", err)
	}

	c.logger.Debug("chat completed",
		slog.String("model", c.model),
		slog.Int("choices", len(decoded.Choices)),
		slog.Duration("elapsed", time.Since(start)))

	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}

var _ ports.ChatCompleter = (*OpenAI)(nil)
