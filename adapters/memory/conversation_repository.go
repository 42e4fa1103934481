package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ushuari/voice/domain/entities"
	"github.com/ushuari/voice/domain/repositories"
)

// ConversationRepository is an in-memory implementation of
// repositories.ConversationRepository. Suitable for development and tests.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations []*entities.Conversation
	active        map[string]*entities.Conversation // roomName -> active conversation
}

// NewConversationRepository creates a new in-memory conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		active: make(map[string]*entities.Conversation),
	}
}

// Append implements repositories.ConversationRepository
func (m *ConversationRepository) Append(ctx context.Context, entry entities.ConversationEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.active[entry.RoomName]
	if !ok {
		conv = entities.NewConversation(entry.RoomName, entry.AgentType, entry.Language)
		m.active[entry.RoomName] = conv
		m.conversations = append(m.conversations, conv)
	}

	conv.Append(entry)
	return nil
}

// GetActive implements repositories.ConversationRepository
func (m *ConversationRepository) GetActive(ctx context.Context, roomName string) (*entities.Conversation, error) {
	if roomName == "" {
		return nil, errors.New("room name cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.active[roomName]
	if !ok {
		return nil, nil
	}

	// Return a copy so callers cannot mutate stored state
	cp := *conv
	cp.Messages = append([]entities.ConversationMessage(nil), conv.Messages...)
	return &cp, nil
}

// Complete implements repositories.ConversationRepository
func (m *ConversationRepository) Complete(ctx context.Context, roomName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv, ok := m.active[roomName]; ok {
		conv.Complete()
		delete(m.active, roomName)
	}
	return nil
}

// ArchiveIdle implements repositories.ConversationRepository
func (m *ConversationRepository) ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var archived int64
	for room, conv := range m.active {
		if conv.IdleSince(cutoff) {
			conv.Archive()
			delete(m.active, room)
			archived++
		}
	}
	return archived, nil
}

// Count returns the number of conversations ever created, in any status.
func (m *ConversationRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)
