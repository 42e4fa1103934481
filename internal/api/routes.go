package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/livekit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ushuari/voice/internal/auth"
	"github.com/ushuari/voice/internal/relay"
	"github.com/ushuari/voice/usecase"
)

// VoiceSubmitter handles recorded utterances.
type VoiceSubmitter interface {
	Submit(ctx context.Context, req usecase.SubmitRequest) (usecase.SubmitResult, error)
}

// CredentialIssuer issues room credentials.
type CredentialIssuer interface {
	IssueToken(room, identity string, ttl time.Duration) (usecase.Credential, error)
}

// SpeechSynthesizer renders reply text to audio/mpeg.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// RoomEventHandler consumes room lifecycle notifications.
type RoomEventHandler interface {
	Handle(ctx context.Context, event usecase.RoomEvent) error
}

// WebhookReceiver verifies provider webhook deliveries.
type WebhookReceiver interface {
	Receive(r *http.Request) (*livekit.WebhookEvent, error)
}

// Services are the dependencies behind the HTTP surface.
type Services struct {
	Voice    VoiceSubmitter
	Rooms    CredentialIssuer
	Speech   SpeechSynthesizer
	Events   RoomEventHandler
	Webhooks WebhookReceiver
	Relay    *relay.Hub

	// ObserverSecret verifies the room credential observers present. Observers
	// are not authenticated when it is empty.
	ObserverSecret []byte
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, services Services, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "ushuari-voice",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v := e.Group("/api")

	v.POST("/voice", func(c echo.Context) error {
		return submitVoice(c, services.Voice, logger)
	})
	v.GET("/voice", func(c echo.Context) error {
		return issueToken(c, services.Rooms, logger)
	})
	v.POST("/tts", func(c echo.Context) error {
		return synthesize(c, services.Speech, logger)
	})
	v.POST("/livekit/webhook", func(c echo.Context) error {
		return receiveWebhook(c, services.Webhooks, services.Events, logger)
	})

	if services.Relay != nil {
		e.GET("/ws/rooms/:room", func(c echo.Context) error {
			return observeRoom(c, services.Relay, services.ObserverSecret, logger)
		})
	}
}

func submitVoice(c echo.Context, voice VoiceSubmitter, logger *zap.Logger) error {
	var req VoiceRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind voice request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	result, err := voice.Submit(c.Request().Context(), usecase.SubmitRequest{
		Audio:           req.Audio,
		AgentType:       req.AgentType,
		Language:        req.Language,
		RoomName:        req.RoomName,
		ParticipantID:   req.ParticipantID,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return errorJSON(c, err, logger)
	}

	if result.Degraded() {
		logger.Warn("Voice submission degraded",
			zap.String("room", req.RoomName),
			zap.NamedError("publish_error", result.PublishErr),
			zap.NamedError("persist_error", result.PersistErr))
	}

	return c.JSON(http.StatusOK, VoiceResponse{Success: true, Response: result.Reply})
}

func issueToken(c echo.Context, rooms CredentialIssuer, logger *zap.Logger) error {
	room := c.QueryParam("roomName")
	identity := c.QueryParam("participantName")

	cred, err := rooms.IssueToken(room, identity, 0)
	if err != nil {
		return errorJSON(c, err, logger)
	}

	return c.JSON(http.StatusOK, TokenResponse{Token: cred.Token, ServerURL: cred.ServerURL})
}

func synthesize(c echo.Context, speech SpeechSynthesizer, logger *zap.Logger) error {
	var req SpeechRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind speech request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	audio, err := speech.Synthesize(c.Request().Context(), req.Text, req.Language)
	if err != nil {
		return errorJSON(c, err, logger)
	}

	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

func receiveWebhook(c echo.Context, webhooks WebhookReceiver, events RoomEventHandler, logger *zap.Logger) error {
	event, err := webhooks.Receive(c.Request())
	if err != nil {
		logger.Warn("Rejected webhook", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_signature",
			Message: "Webhook signature could not be verified",
		})
	}

	roomEvent := usecase.RoomEvent{
		Name:     event.GetEvent(),
		Room:     event.GetRoom().GetName(),
		Identity: event.GetParticipant().GetIdentity(),
	}
	if err := events.Handle(c.Request().Context(), roomEvent); err != nil {
		// A non-2xx status makes the provider redeliver.
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process event",
		})
	}

	return c.NoContent(http.StatusOK)
}

func observeRoom(c echo.Context, hub *relay.Hub, secret []byte, logger *zap.Logger) error {
	room := c.Param("room")
	if len(secret) == 0 {
		return relay.HandleObserver(hub, c, room, logger)
	}

	// Extract the room credential from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		logger.Warn("Observer rejected: missing credential", zap.String("room", room))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Room credential is required in Authorization header",
		})
	}

	claims, err := auth.ValidateCredential(token, secret)
	if err != nil {
		logger.Warn("Observer rejected: invalid credential", zap.String("room", room), zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired room credential",
		})
	}
	if claims.Video.Room != room || !claims.Video.RoomJoin {
		logger.Warn("Observer rejected: credential is for another room",
			zap.String("room", room),
			zap.String("credential_room", claims.Video.Room),
			zap.String("identity", claims.Identity()))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden_room",
			Message: "Credential does not grant access to this room",
		})
	}

	return relay.HandleObserver(hub, c, room, logger.With(zap.String("identity", claims.Identity())))
}

func errorJSON(c echo.Context, err error, logger *zap.Logger) error {
	status, code := errorStatus(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("code", code), zap.Error(err))
	} else {
		logger.Warn("Request rejected", zap.String("code", code), zap.Error(err))
	}

	return c.JSON(status, ErrorResponse{Error: code, Message: errorMessage(code, err)})
}
