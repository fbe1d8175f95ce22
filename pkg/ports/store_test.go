package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/ports"
)

// MockStore is a minimal in-memory implementation of StateStore for testing purposes.
type MockStore struct {
	data map[string]*domain.State
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.State),
	}
}

func (m *MockStore) Save(ctx context.Context, id string, state *domain.State) error {
	// Deep copy to simulate serialization
	m.data[id] = state.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*domain.State, error) {
	state, ok := m.data[id]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return state.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ ports.StateStore = (*MockStore)(nil)

func TestStateStore_Contract(t *testing.T) {
	// This test verifies that the contract suite itself holds for a trivial store.
	ports.RunStateStoreContract(t, NewMockStore())
}
