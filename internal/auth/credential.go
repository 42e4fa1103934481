package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VideoClaims mirrors the room grant section of a LiveKit access token.
type VideoClaims struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	RoomAdmin      bool   `json:"roomAdmin,omitempty"`
	RoomCreate     bool   `json:"roomCreate,omitempty"`
	RoomList       bool   `json:"roomList,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

// RoomClaims represents the claims in a room credential
type RoomClaims struct {
	Name  string      `json:"name,omitempty"`
	Video VideoClaims `json:"video"`
	jwt.RegisteredClaims
}

// Identity is the participant identity the credential was issued to.
func (c *RoomClaims) Identity() string {
	return c.Subject
}

// ExpiresIn returns the remaining validity at now, zero once expired.
func (c *RoomClaims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ErrInvalidCredential is returned for credentials that fail verification.
var ErrInvalidCredential = errors.New("invalid room credential")

// ValidateCredential verifies the signature and expiry of a credential and
// returns its claims.
func ValidateCredential(tokenString string, secret []byte) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims, ok := token.Claims.(*RoomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidCredential
}

// InspectCredential reads a credential's claims without verifying the
// signature. Clients use it to learn the expiry of a token they were handed.
func InspectCredential(tokenString string) (*RoomClaims, error) {
	claims := &RoomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return claims, nil
}
