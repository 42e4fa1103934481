package agent

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/internal/metrics"
)

// DispatchResult separates the reply returned to the caller from the outcome
// of the room broadcast.
type DispatchResult struct {
	Reply     string
	AgentType domain.AgentType
	Fallback  bool
	Message   domain.AgentMessage
	// PublishErr wraps domain.ErrRoomPublishDegraded; nil when the reply reached the room.
	PublishErr error
}

// Degraded reports whether a side effect failed while the reply succeeded.
func (r DispatchResult) Degraded() bool {
	return r.PublishErr != nil
}

// Coordinator routes transcripts to agent handlers. It is safe for
// concurrent use; replies for the same room are not ordered relative to
// each other.
type Coordinator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator over registry.
func NewCoordinator(registry *Registry, logger *zap.Logger) *Coordinator {
	return &Coordinator{registry: registry, logger: logger}
}

// Dispatch resolves req.AgentType and hands the request to its handler.
//
// Errors: domain.ErrUnknownAgentType for bad input and
// domain.ErrCompletionUnavailable for upstream failures. A failed room
// publish is not an error; it is reported in DispatchResult.PublishErr.
func (c *Coordinator) Dispatch(ctx context.Context, req domain.AgentRequest) (DispatchResult, error) {
	start := time.Now()
	label := string(req.AgentType)

	handler, err := c.registry.Resolve(req.AgentType)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAgentType) {
			label = "unknown"
			metrics.RecordDispatch(label, metrics.OutcomeUnknownAgent, 0)
		} else {
			metrics.RecordDispatch(label, metrics.OutcomeFailed, time.Since(start))
		}
		return DispatchResult{}, err
	}

	reply, err := handler.Handle(ctx, req)
	if err != nil {
		metrics.RecordDispatch(label, metrics.OutcomeFailed, time.Since(start))
		return DispatchResult{}, err
	}

	outcome := metrics.OutcomeSuccess
	if reply.Fallback {
		outcome = metrics.OutcomeFallback
	}
	metrics.RecordDispatch(label, outcome, time.Since(start))

	c.logger.Info("Dispatched transcript",
		zap.String("room", req.RoomName),
		zap.String("agent_type", label),
		zap.String("outcome", outcome),
		zap.Bool("publish_degraded", reply.PublishErr != nil),
		zap.Duration("elapsed", time.Since(start)))

	return DispatchResult{
		Reply:      reply.Text,
		AgentType:  handler.AgentType(),
		Fallback:   reply.Fallback,
		Message:    reply.Message,
		PublishErr: reply.PublishErr,
	}, nil
}
