package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
)

const publishTimeout = 5 * time.Second

// Reply is the outcome of one handled request. Text is the primary result;
// PublishErr reports the room broadcast side effect separately.
type Reply struct {
	Text     string
	Fallback bool
	Message  domain.AgentMessage
	// PublishErr wraps domain.ErrRoomPublishDegraded when the broadcast failed.
	PublishErr error
}

// Handler runs a single-turn completion with a fixed persona and broadcasts
// the result into the request's room.
type Handler struct {
	agent     domain.AgentType
	persona   string
	completer repositories.Completer
	publisher repositories.RoomPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler creates a handler for one agent type.
func NewHandler(agentType domain.AgentType, completer repositories.Completer, publisher repositories.RoomPublisher, logger *zap.Logger) (*Handler, error) {
	persona, ok := Persona(agentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgentType, agentType)
	}
	return &Handler{
		agent:     agentType,
		persona:   persona,
		completer: completer,
		publisher: publisher,
		logger:    logger.With(zap.String("agent_type", string(agentType))),
		now:       time.Now,
	}, nil
}

// AgentType returns the agent this handler serves.
func (h *Handler) AgentType() domain.AgentType {
	return h.agent
}

// Handle completes the transcript and publishes the reply to the room.
// Completion failures return domain.ErrCompletionUnavailable and publish nothing.
func (h *Handler) Handle(ctx context.Context, req domain.AgentRequest) (Reply, error) {
	text, err := h.completer.Complete(ctx, h.persona, req.Transcript)
	if err != nil {
		h.logger.Error("Completion failed",
			zap.String("room", req.RoomName),
			zap.Error(err))
		return Reply{}, fmt.Errorf("%w: %w", domain.ErrCompletionUnavailable, err)
	}

	reply := Reply{Text: text}
	if strings.TrimSpace(text) == "" {
		h.logger.Warn("Empty completion, using fallback reply", zap.String("room", req.RoomName))
		reply.Text = FallbackReply
		reply.Fallback = true
	}

	reply.Message = domain.NewAgentReply(h.agent, reply.Text, req.Lang(), h.now())
	reply.PublishErr = h.publish(ctx, req.RoomName, reply.Message)

	return reply, nil
}

// publish broadcasts msg. It outlives the caller's cancellation so a client
// that hangs up still gets the reply delivered to the room.
func (h *Handler) publish(ctx context.Context, room string, msg domain.AgentMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRoomPublishDegraded, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, room, payload, repositories.Reliable); err != nil {
		metrics.RoomPublishFailures.Inc()
		h.logger.Warn("Failed to publish reply to room",
			zap.String("room", room),
			zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrRoomPublishDegraded, err)
	}
	return nil
}
