package relay

import (
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
)

func TestParseControl(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{name: "ping", message: `{"type":"ping","data":"x"}`},
		{name: "ping without data", message: `{"type":"ping"}`},
		{name: "invalid json", message: `{invalid json}`, wantErr: true},
		{name: "missing type", message: `{"data":"x"}`, wantErr: true},
		{name: "room message type", message: `{"type":"legal_response","data":"x"}`, wantErr: true},
		{name: "server only type", message: `{"type":"pong"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseControl([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseControl() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestControlFrame(t *testing.T) {
	frame := NewError("invalid_message", "bad").Frame()
	if frame.Type != websocket.TextMessage {
		t.Fatalf("Expected text frame, got %d", frame.Type)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(frame.Payload, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal frame: %v", err)
	}
	if decoded["type"] != "error" || decoded["error_code"] != "invalid_message" {
		t.Errorf("Unexpected error frame: %v", decoded)
	}
	if _, ok := decoded["room"]; ok {
		t.Error("Empty room should be omitted")
	}
	if decoded["timestamp"].(float64) <= 0 {
		t.Error("Timestamp should be set")
	}
}
