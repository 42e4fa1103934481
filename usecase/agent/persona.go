package agent

import "github.com/ushuari/voice/domain"

// FallbackReply is returned when the completion provider answers with no content.
const FallbackReply = "I apologize, but I couldn't process your request."

// personas holds the fixed system instruction of each agent.
var personas = map[domain.AgentType]string{
	domain.AgentLegal: "You are a legal assistant helping users with their legal questions. " +
		"Provide clear, accurate, and helpful responses.",
	domain.AgentScheduler: "You are a scheduling assistant helping users schedule legal consultations. " +
		"Help them find suitable time slots and manage appointments.",
	domain.AgentDocument: "You are a document management assistant helping users with legal document " +
		"preparation, review, and management. Help them understand and handle legal documents effectively.",
}

// Persona returns the system instruction for an agent.
func Persona(t domain.AgentType) (string, bool) {
	p, ok := personas[t]
	return p, ok
}
