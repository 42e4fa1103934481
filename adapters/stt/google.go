package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

const defaultOpusSampleRate = 48000

// GoogleTranscriber implements repositories.Transcriber with Google Cloud
// Speech-to-Text synchronous recognition. Recordings are capped well under the
// one minute limit of the synchronous API.
type GoogleTranscriber struct {
	client *speech.Client
	logger *zap.Logger
}

// NewGoogleTranscriber creates the speech client using application default credentials
func NewGoogleTranscriber(ctx context.Context, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleTranscriber{client: client, logger: logger}, nil
}

// Transcribe implements repositories.Transcriber
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	encoding, err := getAudioEncoding(config.MimeType)
	if err != nil {
		return "", err
	}

	sampleRate := config.SampleRate
	if sampleRate == 0 && (encoding == speechpb.RecognitionConfig_WEBM_OPUS || encoding == speechpb.RecognitionConfig_OGG_OPUS) {
		sampleRate = defaultOpusSampleRate
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    languageCode(config.Language),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}

	g.logger.Debug("Google transcription completed",
		zap.Int("results", len(resp.Results)),
		zap.String("language", config.Language))

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// getAudioEncoding converts a sniffed mime type to the Google Speech API enum
func getAudioEncoding(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "audio/flac", "audio/x-flac":
		return speechpb.RecognitionConfig_FLAC, nil
	case "audio/basic":
		return speechpb.RecognitionConfig_MULAW, nil
	case "audio/amr":
		return speechpb.RecognitionConfig_AMR, nil
	case "audio/ogg", "audio/opus":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "audio/webm", "video/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio format: %s", mimeType)
	}
}

// languageCode maps the short codes used on the wire to BCP-47 tags.
func languageCode(lang string) string {
	switch lang {
	case "sw":
		return "sw-KE"
	case "rw":
		return "rw-RW"
	default:
		return "en-US"
	}
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)
