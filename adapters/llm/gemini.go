package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ushuari/voice/domain/repositories"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultMaxTokens   = 1024
	defaultTimeout     = 60 * time.Second
)

// GeminiConfig holds configuration for the Gemini completion backend
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// Validate validates the GeminiConfig
func (c GeminiConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", c.Temperature)
	}

	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("topP must be between 0 and 1, got %f", c.TopP)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	return nil
}

// GeminiCompleter implements repositories.Completer using Google's Gemini API
type GeminiCompleter struct {
	client  *genai.Client
	logger  *zap.Logger
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
}

// NewGeminiCompleter creates a new Gemini completion client
func NewGeminiCompleter(config GeminiConfig, logger *zap.Logger) (*GeminiCompleter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default Gemini model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	topP := config.TopP
	if topP == 0 {
		topP = defaultTopP
	}

	maxTokens := config.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
		logger.Info("Using default completion timeout", zap.Duration("timeout", timeout))
	}

	return &GeminiCompleter{
		client: client,
		logger: logger,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			TopP:            genai.Ptr(topP),
			MaxOutputTokens: int32(maxTokens),
		},
		timeout: timeout,
	}, nil
}

// Complete implements repositories.Completer
func (g *GeminiCompleter) Complete(ctx context.Context, persona, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := *g.config
	config.SystemInstruction = genai.NewContentFromText(persona, genai.RoleUser)

	contents := []*genai.Content{genai.NewContentFromText(userText, genai.RoleUser)}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, &config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		g.logger.Warn("No content generated", zap.String("model", g.model))
		return "", nil
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return text.String(), nil
}

var _ repositories.Completer = (*GeminiCompleter)(nil)
