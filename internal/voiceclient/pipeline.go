package voiceclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/internal/api"
	"github.com/ushuari/voice/internal/auth"
)

// VoiceAPI is the part of the server API the pipeline calls.
type VoiceAPI interface {
	Token(ctx context.Context, room, participant string) (api.TokenResponse, error)
	SubmitVoice(ctx context.Context, req api.VoiceRequest) (string, error)
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Session identifies who is talking to which agent.
type Session struct {
	Room      string
	Identity  string
	AgentType domain.AgentType
	Language  string
}

// Pipeline runs one participant's capture loop and playback loop against a
// single room connection. The loops share only the playback queue.
type Pipeline struct {
	session   Session
	api       VoiceAPI
	recorder  *Recorder
	queue     *PlaybackQueue
	log       *MessageLog
	connector RoomConnector
	logger    *zap.Logger

	mu         sync.Mutex
	conn       RoomConnection
	expiresAt  time.Time
	synthesize sync.WaitGroup
}

// NewPipeline wires a pipeline. connector may be nil when the caller feeds
// OnData itself.
func NewPipeline(session Session, voiceAPI VoiceAPI, recorder *Recorder, queue *PlaybackQueue, log *MessageLog, connector RoomConnector, logger *zap.Logger) *Pipeline {
	if session.Language == "" {
		session.Language = domain.DefaultLanguage
	}
	return &Pipeline{
		session:   session,
		api:       voiceAPI,
		recorder:  recorder,
		queue:     queue,
		log:       log,
		connector: connector,
		logger:    logger.With(zap.String("room", session.Room), zap.String("identity", session.Identity)),
	}
}

// Join fetches a credential and connects to the room's data channel.
func (p *Pipeline) Join(ctx context.Context) error {
	cred, err := p.api.Token(ctx, p.session.Room, p.session.Identity)
	if err != nil {
		return err
	}

	claims, err := auth.InspectCredential(cred.Token)
	if err != nil {
		return err
	}
	if claims.Video.Room != "" && claims.Video.Room != p.session.Room {
		return fmt.Errorf("%w: credential is for room %q", auth.ErrInvalidCredential, claims.Video.Room)
	}

	if p.connector == nil {
		return errors.New("no room connector configured")
	}
	conn, err := p.connector.Connect(cred.ServerURL, cred.Token, p.OnData)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	if claims.ExpiresAt != nil {
		p.expiresAt = claims.ExpiresAt.Time
	}
	p.mu.Unlock()

	p.logger.Info("Joined room",
		zap.String("server_url", cred.ServerURL),
		zap.Duration("credential_valid_for", claims.ExpiresIn(time.Now())))
	return nil
}

// CredentialExpiry returns when the room credential expires, zero if unknown.
func (p *Pipeline) CredentialExpiry() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expiresAt
}

// CaptureState returns the capture loop state.
func (p *Pipeline) CaptureState() CaptureState {
	return p.recorder.State()
}

// StartCapture begins recording.
func (p *Pipeline) StartCapture(ctx context.Context) error {
	return p.recorder.StartCapture(ctx)
}

// StopCapture ends recording and returns the blob, nil when nothing was
// being recorded.
func (p *Pipeline) StopCapture() (*Blob, error) {
	return p.recorder.StopCapture()
}

// Submit sends a blob for transcription and dispatch, then returns the
// recorder to Idle whether or not it succeeded. Failures are shown in the
// message log and not retried. An empty blob is ignored.
func (p *Pipeline) Submit(ctx context.Context, blob *Blob) (string, error) {
	if blob == nil || len(blob.Data) == 0 {
		return "", nil
	}
	defer p.recorder.FinishSubmit()

	reply, err := p.api.SubmitVoice(ctx, api.VoiceRequest{
		Audio:           EncodeBlob(blob),
		AgentType:       string(p.session.AgentType),
		Language:        p.session.Language,
		RoomName:        p.session.Room,
		ParticipantID:   p.session.Identity,
		DurationSeconds: blob.Duration.Seconds(),
	})
	if err != nil {
		p.logger.Error("Voice submission failed", zap.Error(err))
		p.log.Append(Entry{Text: SubmitErrorText, Timestamp: time.Now(), Error: true})
		return "", err
	}
	return reply, nil
}

// StopAndSubmit stops capture and submits whatever was recorded.
func (p *Pipeline) StopAndSubmit(ctx context.Context) (string, error) {
	blob, err := p.StopCapture()
	if err != nil {
		p.log.Append(Entry{Text: err.Error(), Timestamp: time.Now(), Error: true})
		return "", err
	}
	return p.Submit(ctx, blob)
}

// OnData handles one data channel payload. Malformed payloads are logged and
// dropped; a panic while handling one is contained here.
func (p *Pipeline) OnData(payload []byte, sender string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered while handling room message",
				zap.String("sender", sender),
				zap.Any("panic", r))
		}
	}()

	msg, err := domain.DecodeAgentMessage(payload)
	if err != nil {
		p.logger.Warn("Dropping room message",
			zap.String("sender", sender),
			zap.Int("bytes", len(payload)),
			zap.Error(err))
		return
	}

	switch msg.Kind {
	case domain.KindUserUtterance:
		p.log.Append(entryFor(msg))
	case domain.KindLegalResponse, domain.KindSchedulerResponse, domain.KindDocumentResponse:
		p.log.Append(entryFor(msg))
		p.enqueueSpeech(msg)
	case domain.KindInvalid:
		p.logger.Warn("Dropping room message with invalid kind", zap.String("sender", sender))
	default:
		p.logger.Warn("Dropping room message of unhandled kind",
			zap.String("sender", sender),
			zap.Stringer("kind", msg.Kind))
	}
}

// enqueueSpeech reserves the playback position now, in arrival order, and
// fills it when synthesis completes.
func (p *Pipeline) enqueueSpeech(msg domain.AgentMessage) {
	slot := p.queue.Reserve()

	p.synthesize.Add(1)
	go func() {
		defer p.synthesize.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		audio, err := p.api.Synthesize(ctx, msg.Data, msg.Language)
		if err != nil {
			p.logger.Warn("Speech synthesis failed", zap.Stringer("kind", msg.Kind), zap.Error(err))
			slot.Skip()
			return
		}

		if _, err := CheckPlayable(audio); err != nil {
			p.logger.Warn("Dropping unplayable audio", zap.Stringer("kind", msg.Kind), zap.Error(err))
			slot.Skip()
			return
		}
		slot.Fill(audio)
	}()
}

// RunPlayback drains the playback queue until ctx is done.
func (p *Pipeline) RunPlayback(ctx context.Context) error {
	return p.queue.Run(ctx)
}

// Close disconnects from the room and waits for pending synthesis.
func (p *Pipeline) Close() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	p.synthesize.Wait()
}

// EncodeBlob renders a blob as a data URL.
func EncodeBlob(blob *Blob) string {
	return fmt.Sprintf("data:%s;base64,%s", blob.MimeType, base64.StdEncoding.EncodeToString(blob.Data))
}

func entryFor(msg domain.AgentMessage) Entry {
	return Entry{Kind: msg.Kind, Text: msg.Data, Language: msg.Language, Timestamp: msg.Timestamp}
}
