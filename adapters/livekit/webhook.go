package livekit

import (
	"fmt"
	"net/http"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
)

// WebhookVerifier authenticates LiveKit webhook deliveries signed with the
// project's API secret.
type WebhookVerifier struct {
	provider auth.KeyProvider
}

// NewWebhookVerifier creates a verifier for the given key pair.
func NewWebhookVerifier(apiKey, apiSecret string) *WebhookVerifier {
	return &WebhookVerifier{provider: auth.NewSimpleKeyProvider(apiKey, apiSecret)}
}

// Receive reads and verifies the event carried by r.
func (v *WebhookVerifier) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	event, err := webhook.ReceiveWebhookEvent(r, v.provider)
	if err != nil {
		return nil, fmt.Errorf("verify livekit webhook: %w", err)
	}
	return event, nil
}
