package voiceclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ushuari/voice/internal/api"
)

// APIClient calls the voice server's HTTP endpoints.
type APIClient struct {
	client *resty.Client
}

// NewAPIClient creates a client for the server at baseURL.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &APIClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// Token requests a room credential.
func (c *APIClient) Token(ctx context.Context, room, participant string) (api.TokenResponse, error) {
	var out api.TokenResponse
	var apiErr api.ErrorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"roomName":        room,
			"participantName": participant,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/voice")
	if err != nil {
		return api.TokenResponse{}, fmt.Errorf("request token: %w", err)
	}
	if resp.IsError() {
		return api.TokenResponse{}, statusError("request token", resp.StatusCode(), apiErr)
	}
	return out, nil
}

// SubmitVoice posts a recording and returns the agent's reply.
func (c *APIClient) SubmitVoice(ctx context.Context, req api.VoiceRequest) (string, error) {
	var out api.VoiceResponse
	var apiErr api.ErrorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/voice")
	if err != nil {
		return "", fmt.Errorf("submit voice: %w", err)
	}
	if resp.IsError() {
		return "", statusError("submit voice", resp.StatusCode(), apiErr)
	}
	if !out.Success {
		return "", fmt.Errorf("submit voice: server reported failure")
	}
	return out.Response, nil
}

// Synthesize returns audio/mpeg for text.
func (c *APIClient) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	var apiErr api.ErrorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "audio/mpeg").
		SetBody(api.SpeechRequest{Text: text, Language: language}).
		SetError(&apiErr).
		Post("/api/tts")
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	if resp.IsError() {
		return nil, statusError("synthesize", resp.StatusCode(), apiErr)
	}
	return resp.Body(), nil
}

func statusError(op string, status int, apiErr api.ErrorResponse) error {
	if apiErr.Error != "" {
		return fmt.Errorf("%s: status %d: %s: %s", op, status, apiErr.Error, apiErr.Message)
	}
	return fmt.Errorf("%s: status %d", op, status)
}
