package livekit

import (
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/ushuari/voice/domain/repositories"
)

// TokenIssuer signs LiveKit access tokens.
type TokenIssuer struct {
	apiKey    string
	apiSecret string
}

// NewTokenIssuer creates a new token issuer.
func NewTokenIssuer(apiKey, apiSecret string) *TokenIssuer {
	return &TokenIssuer{apiKey: apiKey, apiSecret: apiSecret}
}

// IssueToken creates a LiveKit access token for the given room and identity.
func (g *TokenIssuer) IssueToken(room, identity string, grants repositories.Grants, ttl time.Duration) (string, error) {
	at := auth.NewAccessToken(g.apiKey, g.apiSecret)

	canPublish := grants.CanPublish
	canSubscribe := grants.CanSubscribe
	canPublishData := grants.CanPublishData

	grant := &auth.VideoGrant{
		RoomJoin:       grants.RoomJoin,
		Room:           room,
		CanPublish:     &canPublish,
		CanSubscribe:   &canSubscribe,
		CanPublishData: &canPublishData,
		RoomAdmin:      grants.RoomAdmin,
		RoomCreate:     grants.RoomCreate,
		RoomList:       grants.RoomList,
	}

	at.AddGrant(grant).
		SetIdentity(identity).
		SetName(identity).
		SetValidFor(ttl)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return token, nil
}

var _ repositories.TokenIssuer = (*TokenIssuer)(nil)
