package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

const defaultOpenAIModel = openai.GPT4

// OpenAIConfig holds configuration for the OpenAI chat completion backend
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Validate validates the OpenAIConfig
func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// NewOpenAIClient builds a go-openai client from the shared config fields.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAICompleter implements repositories.Completer with the chat completions API
type OpenAICompleter struct {
	client  *openai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

// NewOpenAICompleter creates a new OpenAI completion client
func NewOpenAICompleter(config OpenAIConfig, logger *zap.Logger) (*OpenAICompleter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default completion model", zap.String("model", model))
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
		logger.Info("Using default completion timeout", zap.Duration("timeout", timeout))
	}

	return &OpenAICompleter{
		client:  NewOpenAIClient(config.APIKey, config.BaseURL),
		logger:  logger,
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete implements repositories.Completer
func (o *OpenAICompleter) Complete(ctx context.Context, persona, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: persona},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			o.logger.Warn("Completion request rejected",
				zap.Int("status", apiErr.HTTPStatusCode),
				zap.String("model", o.model))
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		o.logger.Warn("No content generated", zap.String("model", o.model))
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

var _ repositories.Completer = (*OpenAICompleter)(nil)
