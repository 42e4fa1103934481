package voiceclient

import (
	"fmt"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"go.uber.org/zap"
)

// RoomConnection delivers data channel payloads until closed.
type RoomConnection interface {
	Close()
}

// RoomConnector joins a room with a credential.
type RoomConnector interface {
	Connect(serverURL, token string, onData func(payload []byte, sender string)) (RoomConnection, error)
}

// LiveKitConnector joins rooms through the LiveKit SDK.
type LiveKitConnector struct {
	logger *zap.Logger
}

// NewLiveKitConnector creates a connector.
func NewLiveKitConnector(logger *zap.Logger) *LiveKitConnector {
	return &LiveKitConnector{logger: logger}
}

// Connect implements RoomConnector
func (c *LiveKitConnector) Connect(serverURL, token string, onData func(payload []byte, sender string)) (RoomConnection, error) {
	cb := &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				payload := data.ToProto().GetUser().GetPayload()
				if len(payload) == 0 {
					return
				}
				onData(payload, params.SenderIdentity)
			},
		},
		OnDisconnected: func() {
			c.logger.Info("Disconnected from room")
		},
		OnReconnecting: func() {
			c.logger.Info("Reconnecting to room")
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(serverURL, token, cb, lksdk.WithAutoSubscribe(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room with token: %w", err)
	}
	return &liveKitRoom{room: room}, nil
}

type liveKitRoom struct {
	room *lksdk.Room
}

func (r *liveKitRoom) Close() {
	r.room.Disconnect()
}
