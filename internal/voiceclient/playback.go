package voiceclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// ErrUndecodableAudio is returned for synthesized audio that is not a
// playable audio format.
var ErrUndecodableAudio = errors.New("undecodable audio")

// Player plays one buffer to completion.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// CheckPlayable sniffs audio and rejects anything that is not audio/*.
func CheckPlayable(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty buffer", ErrUndecodableAudio)
	}
	mtype := mimetype.Detect(audio)
	if !strings.HasPrefix(mtype.String(), "audio/") {
		return "", fmt.Errorf("%w: detected %s", ErrUndecodableAudio, mtype.String())
	}
	return mtype.String(), nil
}

// Slot is a reserved position in the playback queue. It is filled with audio
// or skipped exactly once.
type Slot struct {
	seq   uint64
	once  sync.Once
	ready chan struct{}
	audio []byte
}

// Fill sets the slot's audio. Later calls are ignored.
func (s *Slot) Fill(audio []byte) {
	s.once.Do(func() {
		s.audio = audio
		close(s.ready)
	})
}

// Skip releases the slot without audio. Later calls are ignored.
func (s *Slot) Skip() {
	s.once.Do(func() { close(s.ready) })
}

// PlaybackQueue plays buffers one at a time in reservation order. A slot
// whose synthesis is still running holds back the slots behind it.
type PlaybackQueue struct {
	player Player
	logger *zap.Logger

	mu      sync.Mutex
	slots   []*Slot
	nextSeq uint64
	notify  chan struct{}
}

// NewPlaybackQueue creates a queue draining into player.
func NewPlaybackQueue(player Player, logger *zap.Logger) *PlaybackQueue {
	return &PlaybackQueue{
		player: player,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// Reserve appends a slot at the tail. Call it in message arrival order.
func (q *PlaybackQueue) Reserve() *Slot {
	q.mu.Lock()
	s := &Slot{seq: q.nextSeq, ready: make(chan struct{})}
	q.nextSeq++
	q.slots = append(q.slots, s)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return s
}

// pending returns the number of slots waiting, excluding one being played.
func (q *PlaybackQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slots)
}

// Run is the single consumer. It returns when ctx is done.
func (q *PlaybackQueue) Run(ctx context.Context) error {
	for {
		s, err := q.head(ctx)
		if err != nil {
			return err
		}

		select {
		case <-s.ready:
		case <-ctx.Done():
			return ctx.Err()
		}

		q.mu.Lock()
		q.slots = q.slots[1:]
		q.mu.Unlock()

		if s.audio != nil {
			if err := q.player.Play(ctx, s.audio); err != nil && ctx.Err() == nil {
				q.logger.Warn("Playback failed", zap.Uint64("slot", s.seq), zap.Error(err))
			}
		}
	}
}

func (q *PlaybackQueue) head(ctx context.Context) (*Slot, error) {
	for {
		q.mu.Lock()
		if len(q.slots) > 0 {
			s := q.slots[0]
			q.mu.Unlock()
			return s, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// FFplayPlayer plays audio through ffplay without a display.
type FFplayPlayer struct {
	// Path to the ffplay binary. Defaults to "ffplay" on PATH.
	Path string
}

// NewFFplayPlayer checks that ffplay is installed.
func NewFFplayPlayer(path string) (*FFplayPlayer, error) {
	if path == "" {
		path = "ffplay"
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}
	return &FFplayPlayer{Path: path}, nil
}

// Play implements Player
func (p *FFplayPlayer) Play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, p.Path,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffplay: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
