package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the environment driven configuration for the voice server.
type Config struct {
	// Service
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"production"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LiveKit
	LiveKitAPIKey      string        `env:"LIVEKIT_API_KEY"`
	LiveKitAPISecret   string        `env:"LIVEKIT_API_SECRET"`
	LiveKitURL         string        `env:"LIVEKIT_URL"`
	LiveKitHost        string        `env:"LIVEKIT_HOST"` // Server API host, defaults to LIVEKIT_URL
	LiveKitTokenTTL    time.Duration `env:"LIVEKIT_TOKEN_TTL" envDefault:"2h"`
	LiveKitAdminGrants bool          `env:"LIVEKIT_ADMIN_GRANTS" envDefault:"true"`
	LiveKitDataTopic   string        `env:"LIVEKIT_DATA_TOPIC"`

	// Completion
	CompletionProvider string        `env:"COMPLETION_PROVIDER" envDefault:"openai"`
	CompletionModel    string        `env:"COMPLETION_MODEL" envDefault:"gpt-4"`
	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// Transcription
	TranscriptionProvider string        `env:"TRANSCRIPTION_PROVIDER" envDefault:"openai"`
	TranscriptionModel    string        `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
	TranscriptionTimeout  time.Duration `env:"TRANSCRIPTION_TIMEOUT" envDefault:"60s"`

	// Synthesis
	SynthesisProvider string        `env:"SYNTHESIS_PROVIDER" envDefault:"openai"`
	SynthesisModel    string        `env:"SYNTHESIS_MODEL" envDefault:"tts-1"`
	SynthesisTimeout  time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"30s"`
	ElevenLabsAPIKey  string        `env:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string        `env:"ELEVENLABS_VOICE_ID"`
	ElevenLabsModelID string        `env:"ELEVENLABS_MODEL_ID"`

	// Conversation storage
	ConversationStore         string        `env:"CONVERSATION_STORE" envDefault:"memory"`
	MongoURI                  string        `env:"MONGODB_URI"`
	MongoDatabase             string        `env:"MONGODB_DATABASE" envDefault:"ushuari"`
	ConversationIdleTimeout   time.Duration `env:"CONVERSATION_IDLE_TIMEOUT" envDefault:"6h"`
	ConversationSweepInterval time.Duration `env:"CONVERSATION_SWEEP_INTERVAL" envDefault:"30m"`
	StoreAudio                bool          `env:"CONVERSATION_STORE_AUDIO" envDefault:"false"`

	EagerAgents bool `env:"EAGER_AGENTS" envDefault:"true"`
}

// Provider names accepted by the *_PROVIDER variables.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderGoogle     = "google"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// LoadEnvFiles loads .env files when present. Variables already set in the
// process environment win.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var errs []error
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.LiveKitURL = strings.TrimSpace(cfg.LiveKitURL)
	cfg.LiveKitHost = strings.TrimSpace(cfg.LiveKitHost)
	if cfg.LiveKitHost == "" {
		cfg.LiveKitHost = cfg.LiveKitURL
	}

	cfg.CompletionProvider = strings.ToLower(strings.TrimSpace(cfg.CompletionProvider))
	cfg.TranscriptionProvider = strings.ToLower(strings.TrimSpace(cfg.TranscriptionProvider))
	cfg.SynthesisProvider = strings.ToLower(strings.TrimSpace(cfg.SynthesisProvider))
	cfg.ConversationStore = strings.ToLower(strings.TrimSpace(cfg.ConversationStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider selections. Credentials are checked by the
// adapters that need them.
func (c *Config) Validate() error {
	if err := oneOf("COMPLETION_PROVIDER", c.CompletionProvider, ProviderOpenAI, ProviderGemini, ProviderMock); err != nil {
		return err
	}
	if err := oneOf("TRANSCRIPTION_PROVIDER", c.TranscriptionProvider, ProviderOpenAI, ProviderGoogle, ProviderMock); err != nil {
		return err
	}
	if err := oneOf("SYNTHESIS_PROVIDER", c.SynthesisProvider, ProviderOpenAI, ProviderElevenLabs, ProviderMock); err != nil {
		return err
	}
	if err := oneOf("CONVERSATION_STORE", c.ConversationStore, StoreMongo, StoreMemory); err != nil {
		return err
	}
	if c.ConversationStore == StoreMongo && c.MongoURI == "" {
		return errors.New("MONGODB_URI is required when CONVERSATION_STORE=mongo")
	}
	if c.ConversationIdleTimeout <= 0 || c.ConversationSweepInterval <= 0 {
		return errors.New("conversation idle timeout and sweep interval must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// NeedsOpenAI reports whether any selected provider talks to OpenAI.
func (c *Config) NeedsOpenAI() bool {
	return c.CompletionProvider == ProviderOpenAI ||
		c.TranscriptionProvider == ProviderOpenAI ||
		c.SynthesisProvider == ProviderOpenAI
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), value)
}
