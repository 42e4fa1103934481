package tts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

const defaultSynthesisTimeout = 30 * time.Second

// OpenAIConfig holds configuration for OpenAI speech synthesis
type OpenAIConfig struct {
	Model   string
	Voices  VoiceMap
	Timeout time.Duration
}

// OpenAISynthesizer implements repositories.Synthesizer with the OpenAI speech API
type OpenAISynthesizer struct {
	client  *openai.Client
	logger  *zap.Logger
	model   openai.SpeechModel
	voices  VoiceMap
	timeout time.Duration
}

// NewOpenAISynthesizer creates a synthesizer sharing an existing OpenAI client
func NewOpenAISynthesizer(client *openai.Client, config OpenAIConfig, logger *zap.Logger) *OpenAISynthesizer {
	model := openai.SpeechModel(config.Model)
	if model == "" {
		model = openai.TTSModel1
		logger.Info("Using default speech model", zap.String("model", string(model)))
	}

	voices := config.Voices
	if voices.fallback == "" {
		voices = NewVoiceMap(DefaultVoices, DefaultVoice)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultSynthesisTimeout
	}

	return &OpenAISynthesizer{client: client, logger: logger, model: model, voices: voices, timeout: timeout}
}

// Synthesize implements repositories.Synthesizer and returns mp3 audio
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	voice := o.voices.Voice(language)
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}

	o.logger.Debug("Synthesized speech",
		zap.String("voice", voice),
		zap.String("language", language),
		zap.Int("bytes", len(audio)))

	return audio, nil
}

var _ repositories.Synthesizer = (*OpenAISynthesizer)(nil)
