package voiceclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/ushuari/voice/domain"
)

// ffmpeg gets this long to finalize the container after a stop request.
const ffmpegStopGrace = 3 * time.Second

// FFmpegMicrophone captures the default input device with ffmpeg and encodes
// it as webm/opus.
type FFmpegMicrophone struct {
	// Path to the ffmpeg binary. Defaults to "ffmpeg" on PATH.
	Path string
	// Device overrides the platform default input.
	Device string
}

// MimeType implements Microphone
func (m FFmpegMicrophone) MimeType() string {
	return "audio/webm"
}

// Open implements Microphone
func (m FFmpegMicrophone) Open(ctx context.Context) (AudioStream, error) {
	path := m.Path
	if path == "" {
		path = "ffmpeg"
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg is required for capture (install ffmpeg and ensure it is in PATH)", domain.ErrDeviceUnavailable)
	}

	args, err := micArgs(runtime.GOOS, m.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, err)
	}

	// Not bound to ctx: the recorder decides when capture ends.
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", domain.ErrDeviceUnavailable, err)
	}

	return &ffmpegStream{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		exited: make(chan struct{}),
	}, nil
}

func micArgs(goos, device string) ([]string, error) {
	var input []string
	switch goos {
	case "darwin":
		if device == "" {
			device = ":0"
		}
		input = []string{"-f", "avfoundation", "-i", device}
	case "linux":
		if device == "" {
			device = "default"
		}
		input = []string{"-f", "pulse", "-i", device}
	default:
		return nil, fmt.Errorf("capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	args = append(args,
		"-ac", "1", "-ar", "48000",
		"-c:a", "libopus", "-b:a", "32k",
		"-f", "webm", "pipe:1",
	)
	return args, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *bytes.Buffer

	stopOnce sync.Once
	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// Read returns encoded bytes. At EOF the process is reaped and a failed
// exit is reported with ffmpeg's stderr.
func (s *ffmpegStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if errors.Is(err, io.EOF) {
		if werr := s.wait(); werr != nil {
			return n, fmt.Errorf("ffmpeg: %w: %s", werr, bytes.TrimSpace(s.stderr.Bytes()))
		}
	}
	return n, err
}

// Stop asks ffmpeg to finish the container, killing it after a grace period.
func (s *ffmpegStream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		_, err = io.WriteString(s.stdin, "q")
		s.stdin.Close()

		go func() {
			select {
			case <-s.exited:
			case <-time.After(ffmpegStopGrace):
				_ = s.cmd.Process.Kill()
			}
		}()
	})
	return err
}

func (s *ffmpegStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
		close(s.exited)
	})
	return s.waitErr
}
