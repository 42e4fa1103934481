package api

// VoiceRequest is the body of POST /api/voice.
type VoiceRequest struct {
	Audio           string  `json:"audio"`
	AgentType       string  `json:"agentType"`
	Language        string  `json:"language"`
	RoomName        string  `json:"roomName"`
	ParticipantID   string  `json:"participantId,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// VoiceResponse is returned for a handled submission.
type VoiceResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// TokenResponse carries a room credential and the endpoint to use it on.
type TokenResponse struct {
	Token     string `json:"token"`
	ServerURL string `json:"serverUrl"`
}

// SpeechRequest is the body of POST /api/tts.
type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
