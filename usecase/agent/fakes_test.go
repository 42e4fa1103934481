package agent

import (
	"context"
	"sync"

	"github.com/ushuari/voice/domain/repositories"
)

type completionCall struct {
	persona  string
	userText string
}

type fakeCompleter struct {
	mu    sync.Mutex
	calls []completionCall
	reply string
	err   error
	block bool
}

func (f *fakeCompleter) Complete(ctx context.Context, persona, userText string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, completionCall{persona: persona, userText: userText})
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Calls() []completionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]completionCall(nil), f.calls...)
}

type publishedPacket struct {
	room        string
	payload     []byte
	reliability repositories.Reliability
}

type fakePublisher struct {
	mu      sync.Mutex
	packets []publishedPacket
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, room string, payload []byte, reliability repositories.Reliability) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, publishedPacket{room: room, payload: payload, reliability: reliability})
	return nil
}

func (f *fakePublisher) Packets() []publishedPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedPacket(nil), f.packets...)
}

// countingFactory returns a factory that hands out completer and counts calls.
func countingFactory(completer repositories.Completer, calls *int, mu *sync.Mutex) repositories.CompleterFactory {
	return func() (repositories.Completer, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		return completer, nil
	}
}
