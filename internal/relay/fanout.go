package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

// Fanout publishes to a primary publisher and mirrors every message to
// secondary publishers. Only the primary's error is reported.
type Fanout struct {
	primary repositories.RoomPublisher
	mirrors []repositories.RoomPublisher
	logger  *zap.Logger
}

// NewFanout creates a publisher that mirrors primary to mirrors.
func NewFanout(primary repositories.RoomPublisher, logger *zap.Logger, mirrors ...repositories.RoomPublisher) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

// Publish implements repositories.RoomPublisher
func (f *Fanout) Publish(ctx context.Context, room string, payload []byte, reliability repositories.Reliability) error {
	err := f.primary.Publish(ctx, room, payload, reliability)

	for _, m := range f.mirrors {
		if merr := m.Publish(ctx, room, payload, reliability); merr != nil {
			f.logger.Warn("Mirror publish failed", zap.String("room", room), zap.Error(merr))
		}
	}
	return err
}
