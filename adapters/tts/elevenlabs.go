package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"   // Rachel voice
	defaultOutputFormat = "mp3_44100_128"          // audio/mpeg for browser and ffplay playback
	defaultModelID      = "eleven_multilingual_v2" // Default model ID
	defaultStability    = 0.5                      // Default voice stability
	defaultClarity      = 0.75                     // Default voice clarity/similarity_boost
)

// ElevenLabsConfig holds configuration for the ElevenLabs synthesizer.
// Only APIKey is required.
type ElevenLabsConfig struct {
	APIKey       string            // Required: Your Eleven Labs API key
	APIBaseURL   string            // Optional: The base URL for the Eleven Labs API
	VoiceID      string            // Optional: The voice ID to use when no language voice matches
	Voices       map[string]string // Optional: language code -> voice ID
	ModelID      string            // Optional: The model ID to use
	OutputFormat string            // Optional: An mp3_* output format
	Stability    float64           // Optional: Voice stability value between 0 and 1
	Clarity      float64           // Optional: Voice clarity/similarity boost value between 0 and 1
	Timeout      time.Duration
}

// ElevenLabsSynthesizer implements repositories.Synthesizer using the Eleven Labs API
type ElevenLabsSynthesizer struct {
	client       *resty.Client
	voices       VoiceMap
	modelID      string
	outputFormat string
	stability    float64
	clarity      float64
	logger       *zap.Logger
}

// Ensure ElevenLabsSynthesizer implements the Synthesizer interface
var _ repositories.Synthesizer = (*ElevenLabsSynthesizer)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API
type ElevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	LanguageCode           string                  `json:"language_code,omitempty"`
	VoiceSettings          ElevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}

	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}

	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}

	if config.OutputFormat != "" && !strings.HasPrefix(config.OutputFormat, "mp3") {
		return fmt.Errorf("output format must be mp3, got %s", config.OutputFormat)
	}

	return nil
}

// NewElevenLabsSynthesizer creates a new Eleven Labs synthesizer
func NewElevenLabsSynthesizer(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsSynthesizer, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", apiBaseURL))
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
		logger.Info("Using default model ID", zap.String("modelID", modelID))
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
	}

	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultSynthesisTimeout
	}

	client := resty.New().
		SetBaseURL(apiBaseURL).
		SetTimeout(timeout).
		SetHeader("xi-api-key", config.APIKey).
		SetHeader("Accept", "audio/mpeg")

	return &ElevenLabsSynthesizer{
		client:       client,
		voices:       NewVoiceMap(config.Voices, voiceID),
		modelID:      modelID,
		outputFormat: outputFormat,
		stability:    stability,
		clarity:      clarity,
		logger:       logger,
	}, nil
}

// Synthesize converts text to mp3 speech using Eleven Labs API
func (e *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := e.voices.Voice(language)
	e.logger.Debug("Converting text to speech",
		zap.String("voiceID", voiceID),
		zap.String("language", language),
		zap.String("modelID", e.modelID))

	request := ElevenLabsRequest{
		Text:                   text,
		ModelID:                e.modelID,
		LanguageCode:           language,
		ApplyTextNormalization: "auto",
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetPathParam("voiceID", voiceID).
		SetQueryParam("output_format", e.outputFormat).
		SetBody(request).
		Post("/text-to-speech/{voiceID}")
	if err != nil {
		return nil, fmt.Errorf("eleven labs request: %w", err)
	}

	if resp.IsError() {
		e.logger.Error("Eleven Labs API returned error",
			zap.Int("statusCode", resp.StatusCode()),
			zap.String("response", resp.String()))
		return nil, fmt.Errorf("eleven labs API returned status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}
