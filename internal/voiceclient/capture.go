package voiceclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
)

const (
	DefaultChunkInterval = time.Second
	DefaultMaxDuration   = 60 * time.Second

	readBufferSize = 4096
)

// CaptureState is the state of the capture loop.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	// CaptureStopping is held while the device is released and the last
	// chunk is flushed.
	CaptureStopping
	CaptureSubmitting
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureRecording:
		return "recording"
	case CaptureStopping:
		return "stopping"
	case CaptureSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("CaptureState(%d)", int(s))
	}
}

// AudioStream is an open microphone. Stop ends capture; Read then returns
// any remaining encoded bytes followed by io.EOF.
type AudioStream interface {
	io.Reader
	Stop() error
}

// Microphone opens the capture device exclusively.
type Microphone interface {
	Open(ctx context.Context) (AudioStream, error)
	MimeType() string
}

// Blob is one finalized recording.
type Blob struct {
	Data     []byte
	MimeType string
	Duration time.Duration
	Chunks   int
}

// Recorder drives Idle -> Recording -> Stopping -> Submitting -> Idle. Every
// path out of Recording and Submitting ends in Idle.
type Recorder struct {
	mic           Microphone
	chunkInterval time.Duration
	maxDuration   time.Duration
	logger        *zap.Logger
	now           func() time.Time

	mu        sync.Mutex
	state     CaptureState
	stream    AudioStream
	chunks    [][]byte
	deviceErr error
	started   time.Time
	stopped   time.Time
	stop      chan struct{}
	done      chan struct{}
}

// NewRecorder creates a recorder. Non-positive durations use the defaults.
func NewRecorder(mic Microphone, chunkInterval, maxDuration time.Duration, logger *zap.Logger) *Recorder {
	if chunkInterval <= 0 {
		chunkInterval = DefaultChunkInterval
	}
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Recorder{
		mic:           mic,
		chunkInterval: chunkInterval,
		maxDuration:   maxDuration,
		logger:        logger,
		now:           time.Now,
	}
}

// State returns the current capture state.
func (r *Recorder) State() CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// StartCapture acquires the microphone and starts buffering chunks. It is
// rejected unless the recorder is Idle.
func (r *Recorder) StartCapture(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != CaptureIdle {
		return fmt.Errorf("%w: recorder is %s", domain.ErrCaptureInProgress, r.state)
	}

	stream, err := r.mic.Open(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, err)
	}

	r.state = CaptureRecording
	r.stream = stream
	r.chunks = nil
	r.deviceErr = nil
	r.started = r.now()
	r.stopped = time.Time{}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.collect(stream, r.stop, r.done)

	r.logger.Info("Capture started",
		zap.Duration("chunk_interval", r.chunkInterval),
		zap.Duration("max_duration", r.maxDuration))
	return nil
}

// StopCapture finalizes the buffered chunks, releases the device and moves
// to Submitting. It returns nil without error when not Recording, including
// while another StopCapture is still finalizing.
func (r *Recorder) StopCapture() (*Blob, error) {
	r.mu.Lock()
	if r.state != CaptureRecording {
		r.mu.Unlock()
		return nil, nil
	}
	r.state = CaptureStopping
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	<-done

	r.mu.Lock()
	defer r.mu.Unlock()

	data := joinChunks(r.chunks)
	if len(data) == 0 {
		r.state = CaptureIdle
		if r.deviceErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, r.deviceErr)
		}
		return nil, nil
	}

	r.state = CaptureSubmitting
	blob := &Blob{
		Data:     data,
		MimeType: r.mic.MimeType(),
		Duration: r.stopped.Sub(r.started),
		Chunks:   len(r.chunks),
	}
	r.chunks = nil

	r.logger.Info("Capture stopped",
		zap.Int("bytes", len(blob.Data)),
		zap.Int("chunks", blob.Chunks),
		zap.Duration("duration", blob.Duration))
	return blob, nil
}

// FinishSubmit returns a Submitting recorder to Idle.
func (r *Recorder) FinishSubmit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == CaptureSubmitting {
		r.state = CaptureIdle
	}
}

// collect reads the stream, cutting a chunk every interval until stopped or
// the maximum duration is reached.
func (r *Recorder) collect(stream AudioStream, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	reads := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(reads)
		for {
			buf := make([]byte, readBufferSize)
			n, err := stream.Read(buf)
			if n > 0 {
				reads <- buf[:n]
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(r.chunkInterval)
	defer ticker.Stop()
	limit := time.NewTimer(r.maxDuration)
	defer limit.Stop()

	var pending []byte
	flush := func() {
		if len(pending) == 0 {
			return
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, pending)
		r.mu.Unlock()
		pending = nil
	}

	stopping := false
	release := func(reason string) {
		if stopping {
			return
		}
		stopping = true
		r.mu.Lock()
		r.stopped = r.now()
		r.mu.Unlock()
		if err := stream.Stop(); err != nil {
			r.logger.Warn("Failed to release microphone", zap.Error(err))
		}
		r.logger.Debug("Releasing microphone", zap.String("reason", reason))
	}

	for {
		select {
		case b, ok := <-reads:
			if !ok {
				flush()
				release("stream ended")
				select {
				case err := <-readErr:
					r.mu.Lock()
					r.deviceErr = err
					r.mu.Unlock()
					r.logger.Warn("Microphone stream failed", zap.Error(err))
				default:
				}
				return
			}
			pending = append(pending, b...)
		case <-ticker.C:
			flush()
		case <-limit.C:
			r.logger.Info("Maximum recording duration reached", zap.Duration("max_duration", r.maxDuration))
			release("maximum duration")
		case <-stop:
			release("stopped")
			stop = nil
		}
	}
}

func joinChunks(chunks [][]byte) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	if size == 0 {
		return nil
	}
	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
