package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAgentMessageWireRoundTrip(t *testing.T) {
	at := time.UnixMilli(1718000000123)
	msg := NewAgentReply(AgentScheduler, "Tuesday at 10 works.", LanguageSwahili, at)

	payload, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := DecodeAgentMessage(payload)
	if err != nil {
		t.Fatalf("DecodeAgentMessage failed: %v", err)
	}

	if got.Kind != KindSchedulerResponse || got.Data != msg.Data || got.Language != msg.Language {
		t.Errorf("Expected %+v, got %+v", msg, got)
	}
	if !got.Timestamp.Equal(at) {
		t.Errorf("Expected timestamp %v, got %v", at, got.Timestamp)
	}
}

func TestEncodeUsesWireTags(t *testing.T) {
	msg := NewAgentReply(AgentLegal, "hello", "", time.UnixMilli(42))
	payload, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	expected := `{"type":"legal_response","data":"hello","language":"en","timestamp":42}`
	if string(payload) != expected {
		t.Errorf("Expected %s, got %s", expected, payload)
	}
}

func TestDecodeAgentMessageRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		unknown bool
	}{
		{name: "unknown type", payload: []byte(`{"type":"weather_response","data":"sunny"}`), unknown: true},
		{name: "missing type", payload: []byte(`{"data":"sunny"}`), unknown: true},
		{name: "numeric type", payload: []byte(`{"type":3,"data":"x"}`)},
		{name: "not json", payload: []byte("legal_response: hi")},
		{name: "invalid utf8", payload: []byte{0xff, 0xfe, '{', '}'}},
		{name: "empty", payload: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAgentMessage(tt.payload)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.unknown && !errors.Is(err, ErrUnknownMessageType) {
				t.Errorf("Expected ErrUnknownMessageType, got %v", err)
			}
		})
	}
}

func TestDecodeAgentMessageDefaults(t *testing.T) {
	got, err := DecodeAgentMessage([]byte(`{"type":"user","data":"What is a non-compete clause?"}`))
	if err != nil {
		t.Fatalf("DecodeAgentMessage failed: %v", err)
	}
	if got.Kind != KindUserUtterance {
		t.Errorf("Expected user utterance, got %s", got.Kind)
	}
	if got.Language != DefaultLanguage {
		t.Errorf("Expected default language, got %s", got.Language)
	}
	if got.Timestamp.IsZero() {
		t.Error("Expected timestamp to be assigned on receipt")
	}
}

func TestEncodeRejectsInvalidKind(t *testing.T) {
	_, err := AgentMessage{Data: "x"}.Encode()
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("Expected ErrUnknownMessageType, got %v", err)
	}
}

func TestParseAgentType(t *testing.T) {
	for _, agent := range AgentTypes {
		got, err := ParseAgentType(string(agent))
		if err != nil || got != agent {
			t.Errorf("ParseAgentType(%q) = %q, %v", agent, got, err)
		}
		if !got.ResponseKind().IsResponse() {
			t.Errorf("Expected %s to map to a response kind", agent)
		}
	}

	if _, err := ParseAgentType("unknown"); !errors.Is(err, ErrUnknownAgentType) {
		t.Errorf("Expected ErrUnknownAgentType, got %v", err)
	}
}
