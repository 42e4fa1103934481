package agent

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain"
	"github.com/ushuari/voice/domain/repositories"
)

// Registry resolves agent types to handlers. Handlers are built lazily, at
// most once each, and all share a single completion client.
type Registry struct {
	newCompleter repositories.CompleterFactory
	publisher    repositories.RoomPublisher
	logger       *zap.Logger

	mu        sync.RWMutex
	completer repositories.Completer
	handlers  map[domain.AgentType]*Handler
}

// NewRegistry creates an empty registry. No provider client is created until
// the first Resolve or Warm.
func NewRegistry(newCompleter repositories.CompleterFactory, publisher repositories.RoomPublisher, logger *zap.Logger) *Registry {
	return &Registry{
		newCompleter: newCompleter,
		publisher:    publisher,
		logger:       logger,
		handlers:     make(map[domain.AgentType]*Handler, len(domain.AgentTypes)),
	}
}

// Resolve returns the handler for agentType, constructing it on first use.
func (r *Registry) Resolve(agentType domain.AgentType) (*Handler, error) {
	if _, ok := Persona(agentType); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgentType, agentType)
	}

	r.mu.RLock()
	h, ok := r.handlers[agentType]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handlers[agentType]; ok {
		return h, nil
	}

	if r.completer == nil {
		completer, err := r.newCompleter()
		if err != nil {
			return nil, fmt.Errorf("%w: create completion client: %w", domain.ErrCompletionUnavailable, err)
		}
		r.completer = completer
		r.logger.Info("Completion client created")
	}

	h, err := NewHandler(agentType, r.completer, r.publisher, r.logger)
	if err != nil {
		return nil, err
	}
	r.handlers[agentType] = h
	r.logger.Info("Agent handler constructed", zap.String("agent_type", string(agentType)))

	return h, nil
}

// Warm constructs every handler up front.
func (r *Registry) Warm() error {
	for _, t := range domain.AgentTypes {
		if _, err := r.Resolve(t); err != nil {
			return err
		}
	}
	return nil
}
