package usecase

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
)

// DefaultTokenTTL bounds how long a room credential stays valid.
const DefaultTokenTTL = 2 * time.Hour

// RoomSessionConfig describes the real-time room provider.
type RoomSessionConfig struct {
	APIKey    string
	APISecret string
	// ServerURL is handed to clients and must use wss://.
	ServerURL   string
	TTL         time.Duration
	AdminGrants bool
}

// Credential is a signed room token plus the endpoint to use it against.
type Credential struct {
	Token     string
	ServerURL string
	Room      string
	Identity  string
	ExpiresAt time.Time
}

// RoomSession issues scoped credentials for joining rooms.
type RoomSession struct {
	issuer    repositories.TokenIssuer
	serverURL string
	ttl       time.Duration
	grants    repositories.Grants
	configErr error
	logger    *zap.Logger
	now       func() time.Time
}

// NewRoomSession validates the provider configuration once. A
// misconfigured session is still returned so its error can be reported; see Err.
func NewRoomSession(config RoomSessionConfig, issuer repositories.TokenIssuer, logger *zap.Logger) *RoomSession {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &RoomSession{
		issuer:    issuer,
		serverURL: config.ServerURL,
		ttl:       ttl,
		grants: repositories.Grants{
			RoomJoin:       true,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
			RoomAdmin:      config.AdminGrants,
			RoomCreate:     config.AdminGrants,
			RoomList:       config.AdminGrants,
		},
		configErr: validateRoomConfig(config),
		logger:    logger,
		now:       time.Now,
	}
}

// Err reports a provider configuration problem. Binaries treat it as fatal.
func (s *RoomSession) Err() error {
	return s.configErr
}

// IssueToken grants identity join, publish and subscribe rights on room.
// A non-positive ttl uses the configured default.
func (s *RoomSession) IssueToken(room, identity string, ttl time.Duration) (Credential, error) {
	if s.configErr != nil {
		return Credential{}, s.configErr
	}

	room, identity = strings.TrimSpace(room), strings.TrimSpace(identity)
	if room == "" || identity == "" {
		return Credential{}, fmt.Errorf("%w: roomName and participantName are required", domain.ErrMissingFields)
	}

	if ttl <= 0 {
		ttl = s.ttl
	}

	token, err := s.issuer.IssueToken(room, identity, s.grants, ttl)
	if err != nil {
		return Credential{}, err
	}

	metrics.TokensIssued.Inc()
	s.logger.Info("Issued room credential",
		zap.String("room", room),
		zap.String("identity", identity),
		zap.Duration("ttl", ttl))

	return Credential{
		Token:     token,
		ServerURL: s.serverURL,
		Room:      room,
		Identity:  identity,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

func validateRoomConfig(config RoomSessionConfig) error {
	var missing []string
	if config.APIKey == "" {
		missing = append(missing, "api key")
	}
	if config.APISecret == "" {
		missing = append(missing, "api secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrProviderMisconfigured, strings.Join(missing, " and "))
	}

	u, err := url.Parse(config.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidEndpointConfig, err)
	}
	if u.Scheme != "wss" || u.Host == "" {
		return fmt.Errorf("%w: %q must be a wss:// URL", domain.ErrInvalidEndpointConfig, config.ServerURL)
	}
	return nil
}
