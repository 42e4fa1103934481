package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// ControlType tags relay control messages. They travel on the same stream as
// room messages and use type tags no room message uses.
type ControlType string

const (
	ControlSubscribed ControlType = "relay_subscribed"
	ControlPing       ControlType = "ping"
	ControlPong       ControlType = "pong"
	ControlError      ControlType = "error"
)

// ControlMessage is exchanged between the relay and an observer.
type ControlMessage struct {
	Type      ControlType `json:"type"`
	Room      string      `json:"room,omitempty"`
	Data      string      `json:"data,omitempty"`
	Code      string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ParseControl decodes a message sent by an observer. Only ping is accepted.
func ParseControl(b []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return ControlMessage{}, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch msg.Type {
	case ControlPing:
		return msg, nil
	case "":
		return ControlMessage{}, fmt.Errorf("message missing type field")
	default:
		return ControlMessage{}, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}

// NewSubscribed confirms a subscription to room.
func NewSubscribed(room string) ControlMessage {
	return ControlMessage{Type: ControlSubscribed, Room: room, Timestamp: time.Now().UnixMilli()}
}

// NewPong answers a ping, echoing its data.
func NewPong(data string) ControlMessage {
	return ControlMessage{Type: ControlPong, Data: data, Timestamp: time.Now().UnixMilli()}
}

// NewError creates a standardized error message
func NewError(code, message string) ControlMessage {
	return ControlMessage{Type: ControlError, Code: code, Message: message, Timestamp: time.Now().UnixMilli()}
}

// Frame encodes the message as a text frame.
func (m ControlMessage) Frame() Frame {
	payload, _ := json.Marshal(m)
	return Frame{Type: websocket.TextMessage, Payload: payload}
}
