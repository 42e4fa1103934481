package llm

import (
	"context"
	"fmt"

	"github.com/ushuari/voice/domain/repositories"
)

// MockCompleter answers every request locally. Useful for running the server
// without provider credentials.
type MockCompleter struct{}

// NewMockCompleter creates a new mock completer
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete implements repositories.Completer
func (m *MockCompleter) Complete(ctx context.Context, persona, userText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if userText == "" {
		return "", nil
	}
	return fmt.Sprintf("You asked: %q. A specialist will follow up with more detail.", userText), nil
}

var _ repositories.Completer = (*MockCompleter)(nil)
