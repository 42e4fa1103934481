package repositories

import (
	"context"
	"time"
)

// Reliability selects the data channel delivery mode.
type Reliability int

const (
	Reliable Reliability = iota
	Lossy
)

func (r Reliability) String() string {
	if r == Lossy {
		return "lossy"
	}
	return "reliable"
}

// RoomPublisher broadcasts a payload to every participant of a room.
type RoomPublisher interface {
	Publish(ctx context.Context, room string, payload []byte, reliability Reliability) error
}

// Grants is the capability set carried by a room credential.
type Grants struct {
	RoomJoin       bool
	CanPublish     bool
	CanSubscribe   bool
	CanPublishData bool
	RoomAdmin      bool
	RoomCreate     bool
	RoomList       bool
}

// TokenIssuer signs time-limited room credentials.
type TokenIssuer interface {
	IssueToken(room, identity string, grants Grants, ttl time.Duration) (string, error)
}
