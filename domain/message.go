package domain

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// MessageKind discriminates AgentMessage variants. The zero value is invalid so
// an unset kind never reaches the wire.
type MessageKind int

const (
	KindInvalid MessageKind = iota
	KindUserUtterance
	KindLegalResponse
	KindSchedulerResponse
	KindDocumentResponse
)

var kindNames = map[MessageKind]string{
	KindUserUtterance:     "user",
	KindLegalResponse:     "legal_response",
	KindSchedulerResponse: "scheduler_response",
	KindDocumentResponse:  "document_response",
}

func (k MessageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// IsResponse reports whether the kind is an agent reply.
func (k MessageKind) IsResponse() bool {
	switch k {
	case KindLegalResponse, KindSchedulerResponse, KindDocumentResponse:
		return true
	}
	return false
}

// ParseMessageKind maps a wire tag to its kind.
func ParseMessageKind(tag string) (MessageKind, error) {
	for k, name := range kindNames {
		if name == tag {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownMessageType, tag)
}

func (k MessageKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, k)
	}
	return []byte(name), nil
}

func (k *MessageKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMessageKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AgentMessage is the unit exchanged over a room's reliable data channel.
// Messages are immutable once built.
type AgentMessage struct {
	Kind      MessageKind
	Data      string
	Language  string
	Timestamp time.Time
}

// wireMessage is the JSON shape on the data channel. Timestamps are
// milliseconds since the epoch.
type wireMessage struct {
	Type      MessageKind `json:"type"`
	Data      string      `json:"data"`
	Language  string      `json:"language,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// NewUserUtterance builds the inbound marker for a transcript.
func NewUserUtterance(transcript, language string, at time.Time) AgentMessage {
	return AgentMessage{Kind: KindUserUtterance, Data: transcript, Language: language, Timestamp: at}
}

// NewAgentReply builds the reply message of the given agent.
func NewAgentReply(agent AgentType, reply, language string, at time.Time) AgentMessage {
	return AgentMessage{Kind: agent.ResponseKind(), Data: reply, Language: language, Timestamp: at}
}

// Encode serializes the message to its wire form.
func (m AgentMessage) Encode() ([]byte, error) {
	if _, ok := kindNames[m.Kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, m.Kind)
	}
	lang := m.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	return json.Marshal(wireMessage{
		Type:      m.Kind,
		Data:      m.Data,
		Language:  lang,
		Timestamp: m.Timestamp.UnixMilli(),
	})
}

// DecodeAgentMessage parses a data-channel payload. Payloads that are not valid
// UTF-8 JSON, or that carry a type outside the closed set, are rejected.
func DecodeAgentMessage(payload []byte) (AgentMessage, error) {
	if !utf8.Valid(payload) {
		return AgentMessage{}, fmt.Errorf("decode agent message: payload is not valid UTF-8")
	}
	var w wireMessage
	if err := json.Unmarshal(payload, &w); err != nil {
		return AgentMessage{}, fmt.Errorf("decode agent message: %w", err)
	}
	if w.Type == KindInvalid {
		return AgentMessage{}, fmt.Errorf("decode agent message: %w: missing type", ErrUnknownMessageType)
	}
	if w.Language == "" {
		w.Language = DefaultLanguage
	}
	ts := time.Now()
	if w.Timestamp > 0 {
		ts = time.UnixMilli(w.Timestamp)
	}
	return AgentMessage{Kind: w.Type, Data: w.Data, Language: w.Language, Timestamp: ts}, nil
}
