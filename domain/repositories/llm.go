package repositories

import "context"

// Completer abstracts a single-turn chat completion provider.
type Completer interface {
	// Complete sends a persona instruction and the user's text as one
	// non-streaming exchange. An empty string with a nil error means the
	// provider answered with no content.
	Complete(ctx context.Context, persona, userText string) (string, error)
}

// CompleterFactory builds a provider client. Agent handlers call it at most once.
type CompleterFactory func() (Completer, error)
