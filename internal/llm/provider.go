package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Completer defines the interface for completion providers.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
