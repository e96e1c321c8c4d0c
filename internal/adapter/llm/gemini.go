package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiService = "gemini"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Gemini is a ChatCompleter over the Google GenAI SDK.
// The SDK client is built on first use; a missing key fails that call only.
type Gemini struct {
	cfg    GeminiConfig
	logger *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini creates a Gemini chat backend.
func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gemini{cfg: cfg, logger: logger.With(slog.String("adapter", geminiService))}
}

func (g *Gemini) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	if g.cfg.APIKey == "" {
		return nil, domain.NewServiceError(geminiService, "connect", http.StatusUnauthorized, "API key not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     g.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.cfg.HTTPClient,
	})
	if err != nil {
		return nil, domain.NewServiceError(geminiService, "connect", 0, "create client failed", err)
	}
	g.client = client
	return client, nil
}

// Complete folds system messages into the system instruction and sends the rest
// as conversation turns.
func (g *Gemini) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	system, contents := toGenaiContents(messages)
	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", domain.NewServiceError(geminiService, "generate", 0, err.Error(), err)
	}

	text := strings.TrimSpace(resp.Text())
	g.logger.Debug("generate completed", slog.String("model", g.cfg.Model), slog.Int("chars", len(text)))
	return text, nil
}

// toGenaiContents splits role-tagged messages into a system instruction and turns.
func toGenaiContents(messages []domain.ChatMessage) (string, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

var _ ports.ChatCompleter = (*Gemini)(nil)
