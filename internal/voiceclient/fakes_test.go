package voiceclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ushuari/voice/internal/api"
)

type fakeStream struct {
	r       *io.PipeReader
	w       *io.PipeWriter
	once      sync.Once
	stopped   chan struct{}
	stopDelay time.Duration
}

func newFakeStream() *fakeStream {
	r, w := io.Pipe()
	return &fakeStream{r: r, w: w, stopped: make(chan struct{})}
}

func (s *fakeStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *fakeStream) Stop() error {
	s.once.Do(func() {
		time.Sleep(s.stopDelay)
		s.w.Close()
		close(s.stopped)
	})
	return nil
}

func (s *fakeStream) write(b []byte) {
	s.w.Write(b)
}

type fakeMic struct {
	mu        sync.Mutex
	openErr   error
	stopDelay time.Duration
	streams   []*fakeStream
}

func (m *fakeMic) MimeType() string { return "audio/webm" }

func (m *fakeMic) Open(ctx context.Context) (AudioStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := newFakeStream()
	s.stopDelay = m.stopDelay
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *fakeMic) last() *fakeStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams[len(m.streams)-1]
}

type recordingPlayer struct {
	mu     sync.Mutex
	played []string
	delay  time.Duration
}

func (p *recordingPlayer) Play(ctx context.Context, audio []byte) error {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, string(audio))
	return nil
}

func (p *recordingPlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

type fakeAPI struct {
	mu         sync.Mutex
	token      api.TokenResponse
	submitted  []api.VoiceRequest
	reply      string
	submitErr  error
	synthDelay map[string]time.Duration
	synthErr   map[string]error
	synthAudio func(text string) []byte
}

func (f *fakeAPI) Token(ctx context.Context, room, participant string) (api.TokenResponse, error) {
	if f.token.Token == "" {
		return api.TokenResponse{}, errors.New("request token: status 500: provider_misconfigured")
	}
	return f.token, nil
}

func (f *fakeAPI) SubmitVoice(ctx context.Context, req api.VoiceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return f.reply, f.submitErr
}

func (f *fakeAPI) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.mu.Lock()
	delay := f.synthDelay[text]
	err := f.synthErr[text]
	f.mu.Unlock()

	time.Sleep(delay)
	if err != nil {
		return nil, err
	}
	if f.synthAudio != nil {
		return f.synthAudio(text), nil
	}
	return mp3Frame(text), nil
}

// mp3Frame is an ID3 tagged buffer carrying text so playback order can be
// asserted.
func mp3Frame(text string) []byte {
	return append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), text...)
}

type overlapPlayer struct {
	mu        sync.Mutex
	active    int
	maxActive int
	played    int
}

func (p *overlapPlayer) Play(ctx context.Context, audio []byte) error {
	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	p.mu.Lock()
	p.active--
	p.played++
	p.mu.Unlock()
	return nil
}

func (p *overlapPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

func (p *overlapPlayer) max() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxActive
}

type fakeConnector struct {
	serverURL string
	token     string
	onData    func(payload []byte, sender string)
	closed    bool
}

func (c *fakeConnector) Connect(serverURL, token string, onData func(payload []byte, sender string)) (RoomConnection, error) {
	c.serverURL, c.token, c.onData = serverURL, token, onData
	return c, nil
}

func (c *fakeConnector) Close() { c.closed = true }
