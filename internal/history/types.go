package history

import (
	"context"

	"github.com/Schorakbi/roboto-ai/internal/models"
)

// Store defines the interface for command history storage
type Store interface {
	// Record prepends an entry and evicts the oldest beyond the size limit
	Record(ctx context.Context, entry models.HistoryEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error
}
