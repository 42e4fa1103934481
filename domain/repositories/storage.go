package repositories

import (
	"context"
	"time"

	"github.com/ushuari/voice/domain/entities"
)

// ConversationRepository persists room conversation logs.
type ConversationRepository interface {
	// Append upserts the active conversation of entry.RoomName and pushes
	// the entry's messages onto it.
	Append(ctx context.Context, entry entities.ConversationEntry) error
	// GetActive returns the active conversation of a room, or nil if none.
	GetActive(ctx context.Context, roomName string) (*entities.Conversation, error)
	// Complete marks a room's active conversation as completed.
	Complete(ctx context.Context, roomName string) error
	// ArchiveIdle archives active conversations not updated since cutoff and
	// returns how many were archived.
	ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error)
}
