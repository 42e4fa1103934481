package tts

import (
	"context"
	"fmt"

	"github.com/ushuari/voice/domain/repositories"
)

// silentFrame is an ID3 tagged header followed by an empty MPEG frame header.
// It sniffs as audio/mpeg and plays as silence.
var silentFrame = []byte{
	'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00, 0x00, 0x00,
}

// MockSynthesizer returns a tiny mp3 for any text
type MockSynthesizer struct{}

// NewMockSynthesizer creates a new mock synthesizer
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize implements repositories.Synthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	out := make([]byte, len(silentFrame))
	copy(out, silentFrame)
	return out, nil
}

var _ repositories.Synthesizer = (*MockSynthesizer)(nil)
