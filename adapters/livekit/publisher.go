package livekit

import (
	"context"
	"fmt"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
)

// DataSender is the part of the room service API the publisher needs.
type DataSender interface {
	SendData(ctx context.Context, req *livekit.SendDataRequest) (*livekit.SendDataResponse, error)
}

// Publisher sends data packets to every participant of a room through the
// LiveKit room service.
type Publisher struct {
	sender DataSender
	topic  string
	logger *zap.Logger
}

// NewRoomServiceClient creates the LiveKit room service client.
func NewRoomServiceClient(host, apiKey, apiSecret string) *lksdk.RoomServiceClient {
	return lksdk.NewRoomServiceClient(host, apiKey, apiSecret)
}

// NewPublisher creates a publisher. An empty topic sends untagged packets.
func NewPublisher(sender DataSender, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{sender: sender, topic: topic, logger: logger}
}

// Publish implements repositories.RoomPublisher
func (p *Publisher) Publish(ctx context.Context, room string, payload []byte, reliability repositories.Reliability) error {
	req := &livekit.SendDataRequest{
		Room: room,
		Data: payload,
		Kind: dataKind(reliability),
	}
	if p.topic != "" {
		topic := p.topic
		req.Topic = &topic
	}

	if _, err := p.sender.SendData(ctx, req); err != nil {
		return fmt.Errorf("livekit send data to room %s: %w", room, err)
	}

	p.logger.Debug("Published data packet",
		zap.String("room", room),
		zap.String("reliability", reliability.String()),
		zap.Int("bytes", len(payload)))
	return nil
}

func dataKind(r repositories.Reliability) livekit.DataPacket_Kind {
	if r == repositories.Lossy {
		return livekit.DataPacket_LOSSY
	}
	return livekit.DataPacket_RELIABLE
}

var _ repositories.RoomPublisher = (*Publisher)(nil)
