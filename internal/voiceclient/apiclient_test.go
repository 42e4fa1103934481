package voiceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ushuari/voice/internal/api"
)

func TestAPIClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/voice", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("roomName") == "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(api.ErrorResponse{Error: "missing_fields", Message: "roomName is required"})
				return
			}
			json.NewEncoder(w).Encode(api.TokenResponse{Token: "signed-token", ServerURL: "wss://ushuari.livekit.cloud"})
		case http.MethodPost:
			var req api.VoiceRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.AgentType == "billing" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unknown_agent_type", Message: `unknown agent type: "billing"`})
				return
			}
			json.NewEncoder(w).Encode(api.VoiceResponse{Success: true, Response: "reply for " + req.RoomName})
		}
	})
	mux.HandleFunc("/api/tts", func(w http.ResponseWriter, r *http.Request) {
		var req api.SpeechRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(mp3Frame(req.Language + ":" + req.Text))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewAPIClient(server.URL, 0)
	ctx := context.Background()

	tok, err := client.Token(ctx, "room-42", "amina")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", tok.Token)
	assert.Equal(t, "wss://ushuari.livekit.cloud", tok.ServerURL)

	_, err = client.Token(ctx, "", "amina")
	assert.ErrorContains(t, err, "missing_fields")

	reply, err := client.SubmitVoice(ctx, api.VoiceRequest{Audio: "eA==", AgentType: "legal", Language: "en", RoomName: "room-42"})
	require.NoError(t, err)
	assert.Equal(t, "reply for room-42", reply)

	_, err = client.SubmitVoice(ctx, api.VoiceRequest{AgentType: "billing"})
	assert.ErrorContains(t, err, "status 400")

	audio, err := client.Synthesize(ctx, "Karibu", "sw")
	require.NoError(t, err)
	assert.Equal(t, mp3Frame("sw:Karibu"), audio)
}
