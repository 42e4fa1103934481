package domain

import "strings"

// AgentType is the closed set of conversational agents a transcript can be routed to.
type AgentType string

const (
	AgentLegal     AgentType = "legal"
	AgentScheduler AgentType = "scheduler"
	AgentDocument  AgentType = "document"
)

// AgentTypes lists every supported agent in a stable order.
var AgentTypes = []AgentType{AgentLegal, AgentScheduler, AgentDocument}

// ParseAgentType returns ErrUnknownAgentType for anything outside the closed set.
func ParseAgentType(s string) (AgentType, error) {
	switch t := AgentType(strings.TrimSpace(s)); t {
	case AgentLegal, AgentScheduler, AgentDocument:
		return t, nil
	}
	return "", ErrUnknownAgentType
}

// ResponseKind is the message kind an agent tags its replies with.
func (t AgentType) ResponseKind() MessageKind {
	switch t {
	case AgentLegal:
		return KindLegalResponse
	case AgentScheduler:
		return KindSchedulerResponse
	case AgentDocument:
		return KindDocumentResponse
	}
	return KindInvalid
}

// Supported languages.
const (
	LanguageEnglish     = "en"
	LanguageSwahili     = "sw"
	LanguageKinyarwanda = "rw"
)

// DefaultLanguage is assumed when a message or request carries none.
const DefaultLanguage = LanguageEnglish

// AgentRequest is one unit of work for the coordinator. It is consumed by
// exactly one handler and never persisted.
type AgentRequest struct {
	RoomName   string
	Transcript string
	AgentType  AgentType
	Language   string
}

// Lang returns the request language, falling back to DefaultLanguage.
func (r AgentRequest) Lang() string {
	if r.Language == "" {
		return DefaultLanguage
	}
	return r.Language
}
