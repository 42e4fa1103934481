package repositories

import "context"

// Transcriber abstracts speech recognition services
type Transcriber interface {
	// Transcribe converts recorded audio to text. Silence may yield "".
	Transcribe(ctx context.Context, audio []byte, config AudioConfig) (string, error)
}

// AudioConfig describes an uploaded recording.
type AudioConfig struct {
	// MimeType is the sniffed container type, e.g. audio/webm.
	MimeType   string `json:"mime_type"`
	Extension  string `json:"extension"`
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language"`
}
