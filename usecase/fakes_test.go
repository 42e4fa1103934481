package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ushuari/voice/domain/entities"
	"github.com/ushuari/voice/domain/repositories"
)

type fakeTranscriber struct {
	mu      sync.Mutex
	calls   int
	configs []repositories.AudioConfig
	text    string
	err     error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.configs = append(f.configs, config)
	return f.text, f.err
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, persona, userText string) (string, error) {
	return f.reply, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	rooms    []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, room string, payload []byte, reliability repositories.Reliability) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, room)
	f.payloads = append(f.payloads, payload)
	return nil
}

type failingConversations struct{}

func (failingConversations) Append(ctx context.Context, entry entities.ConversationEntry) error {
	return errors.New("mongo: server selection timeout")
}

func (failingConversations) GetActive(ctx context.Context, roomName string) (*entities.Conversation, error) {
	return nil, nil
}

func (failingConversations) Complete(ctx context.Context, roomName string) error {
	return errors.New("mongo: server selection timeout")
}

func (failingConversations) ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("mongo: server selection timeout")
}

type fakeIssuer struct {
	room     string
	identity string
	grants   repositories.Grants
	ttl      time.Duration
}

func (f *fakeIssuer) IssueToken(room, identity string, grants repositories.Grants, ttl time.Duration) (string, error) {
	f.room, f.identity, f.grants, f.ttl = room, identity, grants, ttl
	return "signed-token", nil
}

type fakeSynthesizer struct {
	language string
	err      error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.language = language
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3audio"), nil
}
