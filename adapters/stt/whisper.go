package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

const defaultWhisperTimeout = 60 * time.Second

// WhisperConfig holds configuration for OpenAI transcription
type WhisperConfig struct {
	Model   string
	Timeout time.Duration
}

// WhisperTranscriber implements repositories.Transcriber with the OpenAI audio API
type WhisperTranscriber struct {
	client  *openai.Client
	logger  *zap.Logger
	model   string
	timeout time.Duration
}

// NewWhisperTranscriber creates a transcriber sharing an existing OpenAI client
func NewWhisperTranscriber(client *openai.Client, config WhisperConfig, logger *zap.Logger) *WhisperTranscriber {
	model := config.Model
	if model == "" {
		model = openai.Whisper1
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultWhisperTimeout
		logger.Info("Using default transcription timeout", zap.Duration("timeout", timeout))
	}

	return &WhisperTranscriber{client: client, logger: logger, model: model, timeout: timeout}
}

// Transcribe implements repositories.Transcriber
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	// The API infers the container from the file name.
	ext := config.Extension
	if ext == "" {
		ext = ".webm"
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "audio" + ext,
		Reader:   bytes.NewReader(audio),
		Language: config.Language,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

var _ repositories.Transcriber = (*WhisperTranscriber)(nil)
