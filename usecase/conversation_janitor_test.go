package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ushuari/voice/adapters/memory"
	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/entities"
)

func appendTestEntry(t *testing.T, repo *memory.ConversationRepository, room string) {
	t.Helper()
	err := repo.Append(context.Background(), entities.ConversationEntry{
		RoomName:  room,
		AgentType: domain.AgentLegal,
		Language:  "en",
		Messages: []entities.ConversationMessage{
			entities.MessageFromAgent(domain.NewUserUtterance("hi", "en", time.Now())),
		},
	})
	require.NoError(t, err)
}

func TestJanitorSweep(t *testing.T) {
	repo := memory.NewConversationRepository()
	appendTestEntry(t, repo, "room-1")

	janitor := NewConversationJanitor(repo, time.Hour, time.Minute, zaptest.NewLogger(t))
	assert.Zero(t, janitor.Sweep(context.Background()))

	janitor.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, int64(1), janitor.Sweep(context.Background()))

	conv, err := repo.GetActive(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestJanitorStartStop(t *testing.T) {
	janitor := NewConversationJanitor(failingConversations{}, time.Hour, 5*time.Millisecond, zaptest.NewLogger(t))
	janitor.Start()
	time.Sleep(20 * time.Millisecond)
	janitor.Stop()
	janitor.Stop()
}

func TestRoomEventsCompleteConversation(t *testing.T) {
	repo := memory.NewConversationRepository()
	appendTestEntry(t, repo, "room-42")
	service := NewRoomEventService(repo, zaptest.NewLogger(t))

	require.NoError(t, service.Handle(context.Background(), RoomEvent{Name: RoomEventParticipantJoined, Room: "room-42", Identity: "amina"}))
	conv, _ := repo.GetActive(context.Background(), "room-42")
	require.NotNil(t, conv)

	require.NoError(t, service.Handle(context.Background(), RoomEvent{Name: RoomEventFinished, Room: "room-42"}))
	conv, _ = repo.GetActive(context.Background(), "room-42")
	assert.Nil(t, conv)

	assert.NoError(t, service.Handle(context.Background(), RoomEvent{Name: "track_published", Room: "room-42"}))
	assert.Error(t, NewRoomEventService(failingConversations{}, zaptest.NewLogger(t)).
		Handle(context.Background(), RoomEvent{Name: RoomEventFinished, Room: "room-1"}))
}
