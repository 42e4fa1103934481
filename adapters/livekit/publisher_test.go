package livekit

import (
	"context"
	"errors"
	"testing"

	"github.com/livekit/protocol/livekit"
	"go.uber.org/zap/zaptest"

	"github.com/ushuari/voice/domain/repositories"
)

type fakeSender struct {
	requests []*livekit.SendDataRequest
	err      error
}

func (f *fakeSender) SendData(ctx context.Context, req *livekit.SendDataRequest) (*livekit.SendDataResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &livekit.SendDataResponse{}, nil
}

func TestPublisherSendsReliablePackets(t *testing.T) {
	sender := &fakeSender{}
	pub := NewPublisher(sender, "agent", zaptest.NewLogger(t))

	err := pub.Publish(context.Background(), "room-42", []byte(`{"type":"legal_response"}`), repositories.Reliable)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(sender.requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(sender.requests))
	}

	req := sender.requests[0]
	if req.Room != "room-42" {
		t.Errorf("Expected room room-42, got %s", req.Room)
	}
	if req.Kind != livekit.DataPacket_RELIABLE {
		t.Errorf("Expected reliable packet, got %v", req.Kind)
	}
	if req.GetTopic() != "agent" {
		t.Errorf("Expected topic agent, got %q", req.GetTopic())
	}
}

func TestPublisherLossyAndErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("twirp error unavailable")}
	pub := NewPublisher(sender, "", zaptest.NewLogger(t))

	err := pub.Publish(context.Background(), "room-1", []byte("x"), repositories.Lossy)
	if err == nil {
		t.Fatal("Expected publish error")
	}

	if sender.requests[0].Kind != livekit.DataPacket_LOSSY {
		t.Errorf("Expected lossy packet, got %v", sender.requests[0].Kind)
	}
	if sender.requests[0].Topic != nil {
		t.Error("Expected no topic")
	}
}
