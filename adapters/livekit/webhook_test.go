package livekit

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/livekit/protocol/auth"
)

const webhookBody = `{"event":"room_finished","room":{"name":"room-42"}}`

func signedWebhook(t *testing.T, body, secret string) *http.Request {
	t.Helper()
	sum := sha256.Sum256([]byte(body))

	token, err := auth.NewAccessToken("api-key", secret).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:])).
		ToJWT()
	if err != nil {
		t.Fatalf("Failed to sign webhook: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/livekit/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/webhook+json")
	req.Header.Set("Authorization", token)
	return req
}

func TestWebhookVerifierAcceptsSignedEvent(t *testing.T) {
	verifier := NewWebhookVerifier("api-key", "api-secret")

	event, err := verifier.Receive(signedWebhook(t, webhookBody, "api-secret"))
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if event.GetEvent() != "room_finished" {
		t.Errorf("Expected room_finished, got %s", event.GetEvent())
	}
	if event.GetRoom().GetName() != "room-42" {
		t.Errorf("Expected room-42, got %s", event.GetRoom().GetName())
	}
}

func TestWebhookVerifierRejects(t *testing.T) {
	verifier := NewWebhookVerifier("api-key", "api-secret")

	unsigned := httptest.NewRequest(http.MethodPost, "/api/livekit/webhook", strings.NewReader(webhookBody))
	if _, err := verifier.Receive(unsigned); err == nil {
		t.Error("Expected unsigned webhook to be rejected")
	}

	if _, err := verifier.Receive(signedWebhook(t, webhookBody, "other-secret")); err == nil {
		t.Error("Expected webhook signed with another secret to be rejected")
	}

	tampered := signedWebhook(t, webhookBody, "api-secret")
	tampered.Body = http.NoBody
	if _, err := verifier.Receive(tampered); err == nil {
		t.Error("Expected tampered body to be rejected")
	}
}
