package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewElevenLabsSynthesizer(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewElevenLabsSynthesizer(ElevenLabsConfig{}, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	_, err = NewElevenLabsSynthesizer(ElevenLabsConfig{APIKey: "test-api-key", OutputFormat: "pcm_24000"}, logger)
	if err == nil {
		t.Error("Expected error for a non mp3 output format")
	}

	synth, err := NewElevenLabsSynthesizer(ElevenLabsConfig{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsSynthesizer: %v", err)
	}

	if got := synth.voices.Voice("sw"); got != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, got)
	}

	if synth.outputFormat != defaultOutputFormat {
		t.Errorf("Expected output format '%s', got '%s'", defaultOutputFormat, synth.outputFormat)
	}
}

func TestElevenLabsSynthesizer_Synthesize(t *testing.T) {
	var gotPath, gotKey, gotFormat string
	var gotBody ElevenLabsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotFormat = r.URL.Query().Get("output_format")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer server.Close()

	synth, err := NewElevenLabsSynthesizer(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		Voices:     map[string]string{"rw": "rw-voice"},
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsSynthesizer: %v", err)
	}

	audio, err := synth.Synthesize(context.Background(), "Muraho", "rw")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(audio) != "ID3fake-mp3" {
		t.Errorf("Unexpected audio body %q", audio)
	}
	if gotPath != "/text-to-speech/rw-voice" {
		t.Errorf("Expected language voice in path, got %s", gotPath)
	}
	if gotKey != "test-api-key" {
		t.Errorf("Expected api key header, got %q", gotKey)
	}
	if gotFormat != defaultOutputFormat {
		t.Errorf("Expected output format %s, got %s", defaultOutputFormat, gotFormat)
	}
	if gotBody.Text != "Muraho" || gotBody.LanguageCode != "rw" {
		t.Errorf("Unexpected request body %+v", gotBody)
	}
}

func TestElevenLabsSynthesizer_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	synth, err := NewElevenLabsSynthesizer(ElevenLabsConfig{APIKey: "k", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsSynthesizer: %v", err)
	}

	ctx := context.Background()
	if _, err := synth.Synthesize(ctx, "   ", "en"); err == nil {
		t.Error("Expected error for whitespace-only text")
	}

	if _, err := synth.Synthesize(ctx, "hello", "en"); err == nil {
		t.Error("Expected error for a non-2xx response")
	}
}

// Integration test - only runs if ELEVENLABS_API_KEY is set with real API key
func TestElevenLabsSynthesizer_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test - set ELEVENLABS_API_KEY environment variable with real API key")
	}

	synth, err := NewElevenLabsSynthesizer(ElevenLabsConfig{APIKey: apiKey}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsSynthesizer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	audio, err := synth.Synthesize(ctx, "Habari, karibu kwenye msaada wa kisheria.", "sw")
	if err != nil {
		t.Fatalf("Failed to synthesize: %v", err)
	}

	if len(audio) == 0 {
		t.Error("No audio data received")
	}
}
