package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ushuari/voice/domain"
)

// ConversationStatus is the lifecycle state of a room's conversation log.
type ConversationStatus string

const (
	ConversationStatusActive    ConversationStatus = "active"
	ConversationStatusCompleted ConversationStatus = "completed"
	ConversationStatusArchived  ConversationStatus = "archived"
)

// ConversationMessage is one entry of a conversation. Type carries the wire
// tag of the AgentMessage it was built from.
type ConversationMessage struct {
	Type      string    `json:"type" bson:"type"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	AudioURL  string    `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`
}

// ConversationMetadata holds lightweight bookkeeping about a conversation.
type ConversationMetadata struct {
	ClientID string   `json:"clientId,omitempty" bson:"clientId,omitempty"`
	CaseID   string   `json:"caseId,omitempty" bson:"caseId,omitempty"`
	Duration float64  `json:"duration" bson:"duration"`
	Tags     []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// Conversation is the append-only message history of one room.
type Conversation struct {
	ID        primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	RoomName  string                `json:"roomName" bson:"roomName"`
	AgentType domain.AgentType      `json:"agentType" bson:"agentType"`
	Language  string                `json:"language" bson:"language"`
	Messages  []ConversationMessage `json:"messages" bson:"messages"`
	Status    ConversationStatus    `json:"status" bson:"status"`
	Metadata  ConversationMetadata  `json:"metadata" bson:"metadata"`
	CreatedAt time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// ConversationEntry is what a single voice submission appends: the user's
// transcript and the agent's reply, plus the submission's bookkeeping.
type ConversationEntry struct {
	RoomName        string
	AgentType       domain.AgentType
	Language        string
	ParticipantID   string
	DurationSeconds float64
	Messages        []ConversationMessage
}

// NewConversation creates an active conversation for a room.
func NewConversation(roomName string, agentType domain.AgentType, language string) *Conversation {
	now := time.Now()
	if language == "" {
		language = domain.DefaultLanguage
	}
	return &Conversation{
		ID:        primitive.NewObjectID(),
		RoomName:  roomName,
		AgentType: agentType,
		Language:  language,
		Messages:  make([]ConversationMessage, 0),
		Status:    ConversationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MessageFromAgent converts a data-channel message into a log entry.
func MessageFromAgent(msg domain.AgentMessage) ConversationMessage {
	return ConversationMessage{
		Type:      msg.Kind.String(),
		Content:   msg.Data,
		Timestamp: msg.Timestamp,
	}
}

// Append adds an entry's messages and duration to the conversation.
func (c *Conversation) Append(entry ConversationEntry) {
	c.Messages = append(c.Messages, entry.Messages...)
	c.Metadata.Duration += entry.DurationSeconds
	if c.Metadata.ClientID == "" {
		c.Metadata.ClientID = entry.ParticipantID
	}
	c.UpdatedAt = time.Now()
}

// Complete marks the conversation as finished by its participants.
func (c *Conversation) Complete() {
	c.Status = ConversationStatusCompleted
	c.UpdatedAt = time.Now()
}

// Archive marks the conversation as archived.
func (c *Conversation) Archive() {
	c.Status = ConversationStatusArchived
	c.UpdatedAt = time.Now()
}

// IdleSince reports whether the conversation has been untouched since cutoff.
func (c *Conversation) IdleSince(cutoff time.Time) bool {
	return c.Status == ConversationStatusActive && c.UpdatedAt.Before(cutoff)
}

// Validate validates the conversation data
func (c *Conversation) Validate() error {
	if c.RoomName == "" {
		return errors.New("roomName is required")
	}

	switch c.Status {
	case ConversationStatusActive, ConversationStatusCompleted, ConversationStatusArchived:
	default:
		return errors.New("invalid conversation status")
	}

	switch c.Language {
	case domain.LanguageEnglish, domain.LanguageSwahili, domain.LanguageKinyarwanda:
	default:
		return errors.New("unsupported language")
	}

	return nil
}

// Validate checks that an entry can be appended.
func (e ConversationEntry) Validate() error {
	if e.RoomName == "" {
		return errors.New("roomName is required")
	}
	if len(e.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	return nil
}
