package middleware_test

import (
	"context"
	"sort"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect what was written.
type MockStore struct {
	data map[string]*domain.State
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.State),
	}
}

func (s *MockStore) Save(ctx context.Context, id string, state *domain.State) error {
	s.data[id] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (*domain.State, error) {
	state, ok := s.data[id]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)
