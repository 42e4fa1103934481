package repositories

import "context"

// Synthesizer turns text into spoken audio (audio/mpeg).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
