package main

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ushuari/voice/adapters/llm"
	"github.com/ushuari/voice/adapters/memory"
	"github.com/ushuari/voice/adapters/mongo"
	"github.com/ushuari/voice/adapters/stt"
	"github.com/ushuari/voice/adapters/tts"
	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/config"
)

// newOpenAIClient returns the shared OpenAI client, or nil when no selected
// provider uses OpenAI.
func newOpenAIClient(cfg *config.Config) (*openai.Client, error) {
	if !cfg.NeedsOpenAI() {
		return nil, nil
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required when a provider is openai")
	}
	return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
}

// completerFactory defers client construction to the agent registry.
func completerFactory(cfg *config.Config, logger *zap.Logger) repositories.CompleterFactory {
	switch cfg.CompletionProvider {
	case config.ProviderGemini:
		return func() (repositories.Completer, error) {
			c, err := llm.NewGeminiCompleter(llm.GeminiConfig{
				APIKey:      cfg.GeminiAPIKey,
				Model:       cfg.GeminiModel,
				Temperature: 0.7,
				TopP:        0.95,
				Timeout:     cfg.CompletionTimeout,
			}, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	case config.ProviderMock:
		return func() (repositories.Completer, error) {
			return llm.NewMockCompleter(), nil
		}
	default:
		return func() (repositories.Completer, error) {
			c, err := llm.NewOpenAICompleter(llm.OpenAIConfig{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.CompletionModel,
				Timeout: cfg.CompletionTimeout,
			}, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
}

// newTranscriber returns the configured transcriber and a closer for any
// client it opened.
func newTranscriber(ctx context.Context, cfg *config.Config, client *openai.Client, logger *zap.Logger) (repositories.Transcriber, io.Closer, error) {
	switch cfg.TranscriptionProvider {
	case config.ProviderGoogle:
		g, err := stt.NewGoogleTranscriber(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	case config.ProviderMock:
		return stt.NewMockTranscriber("", logger), nopCloser{}, nil
	default:
		if client == nil {
			return nil, nil, errors.New("OPENAI_API_KEY is required for openai transcription")
		}
		return stt.NewWhisperTranscriber(client, stt.WhisperConfig{
			Model:   cfg.TranscriptionModel,
			Timeout: cfg.TranscriptionTimeout,
		}, logger), nopCloser{}, nil
	}
}

func newSynthesizer(cfg *config.Config, client *openai.Client, logger *zap.Logger) (repositories.Synthesizer, error) {
	switch cfg.SynthesisProvider {
	case config.ProviderElevenLabs:
		s, err := tts.NewElevenLabsSynthesizer(tts.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
			ModelID: cfg.ElevenLabsModelID,
			Timeout: cfg.SynthesisTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderMock:
		return tts.NewMockSynthesizer(), nil
	default:
		if client == nil {
			return nil, errors.New("OPENAI_API_KEY is required for openai synthesis")
		}
		return tts.NewOpenAISynthesizer(client, tts.OpenAIConfig{
			Model:   cfg.SynthesisModel,
			Voices:  tts.NewVoiceMap(tts.DefaultVoices, tts.DefaultVoice),
			Timeout: cfg.SynthesisTimeout,
		}, logger), nil
	}
}

// newConversationStore returns the repository and a shutdown hook.
func newConversationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.ConversationRepository, func(context.Context) error, error) {
	if cfg.ConversationStore == config.StoreMemory {
		logger.Warn("Using in-memory conversation store; conversations are lost on restart")
		return memory.NewConversationRepository(), func(context.Context) error { return nil }, nil
	}

	client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return nil, nil, err
	}
	return mongo.NewConversationRepository(client.Database, logger), client.Close, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
