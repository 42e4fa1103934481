package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
)

// Room lifecycle events reported by the real-time provider.
const (
	RoomEventStarted           = "room_started"
	RoomEventFinished          = "room_finished"
	RoomEventParticipantJoined = "participant_joined"
	RoomEventParticipantLeft   = "participant_left"
)

// RoomEvent is a provider notification about a room.
type RoomEvent struct {
	Name     string
	Room     string
	Identity string
}

// RoomEventService consumes room notifications. A finished room completes
// its active conversation.
type RoomEventService struct {
	conversations repositories.ConversationRepository
	logger        *zap.Logger
}

// NewRoomEventService creates a new room event service
func NewRoomEventService(conversations repositories.ConversationRepository, logger *zap.Logger) *RoomEventService {
	return &RoomEventService{conversations: conversations, logger: logger}
}

// Handle processes one event. Unknown events are counted and ignored.
func (s *RoomEventService) Handle(ctx context.Context, event RoomEvent) error {
	metrics.RoomEvents.WithLabelValues(event.Name).Inc()

	switch event.Name {
	case RoomEventFinished:
		if err := s.conversations.Complete(ctx, event.Room); err != nil {
			s.logger.Error("Failed to complete conversation",
				zap.String("room", event.Room),
				zap.Error(err))
			return err
		}
	case RoomEventParticipantJoined, RoomEventParticipantLeft, RoomEventStarted:
		s.logger.Info("Room event",
			zap.String("event", event.Name),
			zap.String("room", event.Room),
			zap.String("identity", event.Identity))
	default:
		s.logger.Debug("Ignoring room event", zap.String("event", event.Name))
	}
	return nil
}
