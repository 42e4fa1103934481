package api

import (
	"errors"
	"net/http"

	"github.com/ushuari/voice/domain"
)

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "missing_fields"
	case errors.Is(err, domain.ErrInvalidAudio):
		return http.StatusBadRequest, "invalid_audio"
	case errors.Is(err, domain.ErrUnknownAgentType):
		return http.StatusBadRequest, "unknown_agent_type"
	case errors.Is(err, domain.ErrProviderMisconfigured), errors.Is(err, domain.ErrInvalidEndpointConfig):
		return http.StatusInternalServerError, "provider_misconfigured"
	case errors.Is(err, domain.ErrTranscriptionFailed):
		return http.StatusBadGateway, "transcription_failed"
	case errors.Is(err, domain.ErrCompletionUnavailable):
		return http.StatusBadGateway, "completion_unavailable"
	case errors.Is(err, domain.ErrSynthesisFailed):
		return http.StatusBadGateway, "synthesis_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorMessage is the client facing text for a code. Upstream details stay
// in the logs.
func errorMessage(code string, err error) string {
	switch code {
	case "missing_fields", "invalid_audio", "unknown_agent_type":
		return err.Error()
	case "provider_misconfigured":
		return "Real-time provider is not configured"
	case "internal_error":
		return "Internal server error"
	default:
		return "Upstream provider failed, please retry"
	}
}
