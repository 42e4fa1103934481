package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/repositories"
)

// SpeechService synthesizes agent replies for client playback.
type SpeechService struct {
	synthesizer repositories.Synthesizer
	logger      *zap.Logger
}

// NewSpeechService creates a new speech service
func NewSpeechService(synthesizer repositories.Synthesizer, logger *zap.Logger) *SpeechService {
	return &SpeechService{synthesizer: synthesizer, logger: logger}
}

// Synthesize returns audio/mpeg for text in the voice mapped to language.
func (s *SpeechService) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text", domain.ErrMissingFields)
	}
	if language == "" {
		language = domain.DefaultLanguage
	}

	audio, err := s.synthesizer.Synthesize(ctx, text, language)
	if err != nil {
		s.logger.Error("Speech synthesis failed",
			zap.String("language", language),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	return audio, nil
}
