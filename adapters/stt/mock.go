package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

// MockTranscriber returns a fixed transcript for any non-empty audio
type MockTranscriber struct {
	logger     *zap.Logger
	transcript string
}

// NewMockTranscriber creates a new mock transcriber
func NewMockTranscriber(transcript string, logger *zap.Logger) *MockTranscriber {
	if transcript == "" {
		transcript = "What is a non-compete clause?"
	}
	return &MockTranscriber{logger: logger, transcript: transcript}
}

// Transcribe implements repositories.Transcriber
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	m.logger.Info("Mock transcription",
		zap.Int("bytes", len(audio)),
		zap.String("mime_type", config.MimeType),
		zap.String("language", config.Language))

	if len(audio) == 0 {
		return "", nil
	}
	return m.transcript, nil
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)
