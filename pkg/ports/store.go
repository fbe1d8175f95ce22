package ports

import (
	"context"

	"github.com/aretw0/statelift/pkg/domain"
)

// StateStore defines the interface for persisting wallet states.
// The migration core never performs I/O itself; a store supplies the state at
// startup and accepts the upgraded state for durable write.
type StateStore interface {
	// Save persists the state for a given state ID.
	Save(ctx context.Context, id string, state *domain.State) error

	// Load retrieves the state for a given state ID.
	// Returns domain.ErrStateNotFound if the state does not exist.
	Load(ctx context.Context, id string) (*domain.State, error)

	// Delete removes the state for a given state ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored states.
	List(ctx context.Context) ([]string, error)
}

// VersionIndex is implemented by stores that can answer version queries
// without decoding every state.
type VersionIndex interface {
	// Below returns the IDs whose stored version is less than v, sorted.
	Below(ctx context.Context, v int) ([]string, error)
}
