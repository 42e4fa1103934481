package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/entities"
	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
	"github.com/ushuari/voice/usecase/agent"
)

const persistTimeout = 5 * time.Second

// Dispatcher routes a transcript to an agent.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.AgentRequest) (agent.DispatchResult, error)
}

// SubmitRequest is one recorded utterance submitted by a client.
type SubmitRequest struct {
	// Audio is base64, optionally wrapped in a data URL.
	Audio           string
	AgentType       string
	Language        string
	RoomName        string
	ParticipantID   string
	DurationSeconds float64
}

// SubmitResult carries the reply plus the outcome of each best-effort side effect.
type SubmitResult struct {
	Transcript string
	Reply      string
	AgentType  domain.AgentType
	Fallback   bool
	PublishErr error
	PersistErr error
}

// Degraded reports whether the reply succeeded but a side effect failed.
func (r SubmitResult) Degraded() bool {
	return r.PublishErr != nil || r.PersistErr != nil
}

// VoiceServiceConfig tunes the submission pipeline.
type VoiceServiceConfig struct {
	// StoreAudio keeps the submitted data URL on the logged user message.
	StoreAudio bool
}

// VoiceService runs a submission through transcription, dispatch and the
// conversation log.
type VoiceService struct {
	transcriber   repositories.Transcriber
	dispatcher    Dispatcher
	conversations repositories.ConversationRepository
	config        VoiceServiceConfig
	logger        *zap.Logger
	now           func() time.Time
}

// NewVoiceService creates a new voice service
func NewVoiceService(
	transcriber repositories.Transcriber,
	dispatcher Dispatcher,
	conversations repositories.ConversationRepository,
	config VoiceServiceConfig,
	logger *zap.Logger,
) *VoiceService {
	return &VoiceService{
		transcriber:   transcriber,
		dispatcher:    dispatcher,
		conversations: conversations,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// Submit transcribes the audio, dispatches the transcript and appends both
// sides of the exchange to the room's conversation.
func (s *VoiceService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		return SubmitResult{}, fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}

	agentType, err := domain.ParseAgentType(req.AgentType)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %q", err, req.AgentType)
	}

	audio, declaredMime, err := DecodeAudioPayload(req.Audio)
	if err != nil {
		return SubmitResult{}, err
	}
	receivedAt := s.now()

	audioConfig := sniffAudio(audio, declaredMime, req.Language)
	s.logger.Info("Processing voice submission",
		zap.String("room", req.RoomName),
		zap.String("agent_type", string(agentType)),
		zap.String("language", req.Language),
		zap.String("mime_type", audioConfig.MimeType),
		zap.Int("bytes", len(audio)))

	transcript, err := s.transcriber.Transcribe(ctx, audio, audioConfig)
	if err != nil {
		s.logger.Error("Transcription failed", zap.String("room", req.RoomName), zap.Error(err))
		return SubmitResult{}, fmt.Errorf("%w: %w", domain.ErrTranscriptionFailed, err)
	}

	dispatched, err := s.dispatcher.Dispatch(ctx, domain.AgentRequest{
		RoomName:   req.RoomName,
		Transcript: transcript,
		AgentType:  agentType,
		Language:   req.Language,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{
		Transcript: transcript,
		Reply:      dispatched.Reply,
		AgentType:  dispatched.AgentType,
		Fallback:   dispatched.Fallback,
		PublishErr: dispatched.PublishErr,
	}

	userMsg := entities.MessageFromAgent(domain.NewUserUtterance(transcript, req.Language, receivedAt))
	if s.config.StoreAudio {
		userMsg.AudioURL = req.Audio
	}
	result.PersistErr = s.persist(ctx, entities.ConversationEntry{
		RoomName:        req.RoomName,
		AgentType:       agentType,
		Language:        req.Language,
		ParticipantID:   req.ParticipantID,
		DurationSeconds: req.DurationSeconds,
		Messages:        []entities.ConversationMessage{userMsg, entities.MessageFromAgent(dispatched.Message)},
	})

	return result, nil
}

// persist appends to the conversation log. Failures are logged and returned
// for reporting only.
func (s *VoiceService) persist(ctx context.Context, entry entities.ConversationEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.conversations.Append(ctx, entry); err != nil {
		metrics.ConversationAppendFailures.Inc()
		s.logger.Warn("Failed to append conversation",
			zap.String("room", entry.RoomName),
			zap.Error(err))
		return err
	}
	return nil
}

func (r SubmitRequest) missingFields() []string {
	var missing []string
	if r.Audio == "" {
		missing = append(missing, "audio")
	}
	if r.AgentType == "" {
		missing = append(missing, "agentType")
	}
	if r.Language == "" {
		missing = append(missing, "language")
	}
	if r.RoomName == "" {
		missing = append(missing, "roomName")
	}
	return missing
}

// DecodeAudioPayload accepts raw base64 or a data URL and returns the audio
// bytes with the mime type the data URL declared, if any.
func DecodeAudioPayload(payload string) ([]byte, string, error) {
	var declared string
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("%w: malformed data URL", domain.ErrInvalidAudio)
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: data URL is not base64 encoded", domain.ErrInvalidAudio)
		}
		declared = strings.TrimSuffix(header, ";base64")
		payload = data
	}

	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, "", fmt.Errorf("%w: invalid base64 at offset %d", domain.ErrInvalidAudio, int64(corrupt))
		}
		return nil, "", fmt.Errorf("%w: %w", domain.ErrInvalidAudio, err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("%w: empty audio", domain.ErrInvalidAudio)
	}

	return audio, declared, nil
}

// sniffAudio fills the transcription config from the recording's content,
// falling back to what the client declared.
func sniffAudio(audio []byte, declared, language string) repositories.AudioConfig {
	detected := mimetype.Detect(audio)
	mimeType, ext := detected.String(), detected.Extension()

	if detected.Is("application/octet-stream") && declared != "" {
		mimeType = declared
		ext = ""
		if known := mimetype.Lookup(baseMime(declared)); known != nil {
			ext = known.Extension()
		}
	}

	return repositories.AudioConfig{
		MimeType:  mimeType,
		Extension: ext,
		Language:  language,
	}
}

func baseMime(m string) string {
	base, _, _ := strings.Cut(m, ";")
	return strings.TrimSpace(base)
}
