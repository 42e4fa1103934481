package domain

import "errors"

// Input errors. Rejected immediately, never retried.
var (
	ErrUnknownAgentType      = errors.New("unknown agent type")
	ErrMissingFields         = errors.New("missing required fields")
	ErrInvalidAudio          = errors.New("invalid audio payload")
	ErrInvalidEndpointConfig = errors.New("invalid room server endpoint")
	ErrUnknownMessageType    = errors.New("unknown message type")
)

// Upstream failures. The current operation fails and the user re-records.
var (
	ErrCompletionUnavailable = errors.New("completion service unavailable")
	ErrTranscriptionFailed   = errors.New("transcription failed")
	ErrSynthesisFailed       = errors.New("speech synthesis failed")
)

// ErrProviderMisconfigured means the real-time room provider secrets are absent.
var ErrProviderMisconfigured = errors.New("room provider is not configured")

// ErrRoomPublishDegraded marks a reply that was produced but could not be
// broadcast into the room.
var ErrRoomPublishDegraded = errors.New("room publish degraded")

// Client side.
var (
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")
	ErrCaptureInProgress = errors.New("capture already in progress")
)
