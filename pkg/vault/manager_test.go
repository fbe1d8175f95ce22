package vault_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/statelift/pkg/adapters/memory"
	redisadapter "github.com/aretw0/statelift/pkg/adapters/redis"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/vault"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	active  int
	maxSeen int
	mu      sync.Mutex
}

func (s *SlowStore) enter() {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()
}

func (s *SlowStore) leave() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *SlowStore) Save(ctx context.Context, id string, state *domain.State) error {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, id, state)
}

func TestManager_SerializesSameID(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := vault.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, "wallet", domain.NewState(v)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.maxSeen, "writes to the same ID must not overlap")
}

func TestManager_LoadMissing(t *testing.T) {
	manager := vault.NewManager(memory.NewStore())
	_, err := manager.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := redisadapter.NewLocker(client, "test:")
	manager := vault.NewManager(memory.NewStore(),
		vault.WithLocker(locker),
		vault.WithLockTTL(time.Minute),
	)
	ctx := context.Background()

	err := manager.WithLock(ctx, "wallet", func(ctx context.Context) error {
		assert.True(t, mr.Exists("test:lock:wallet"), "lock key should be held inside WithLock")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:wallet"), "lock key should be released")
}

func TestManager_DistributedLockTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// Another replica holds the lock
	require.NoError(t, mr.Set("test:lock:wallet", "foreign"))

	manager := vault.NewManager(memory.NewStore(), vault.WithLocker(redisadapter.NewLocker(client, "test:")))
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	called := false
	err := manager.WithLock(ctx, "wallet", func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestManager_ImportExport(t *testing.T) {
	manager := vault.NewManager(memory.NewStore())
	ctx := context.Background()

	raw := `{"meta":{"version":75},"data":{"KeyringController":{"vault":"secret"},"Big":{"n":12345678901234567890}}}`
	state, err := manager.Import(ctx, "wallet", strings.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, 75, state.Meta.Version)

	var out bytes.Buffer
	require.NoError(t, manager.Export(ctx, "wallet", &out, nil))
	assert.JSONEq(t, raw, out.String())
	assert.Contains(t, out.String(), "12345678901234567890")

	out.Reset()
	mask := func(s *domain.State) *domain.State {
		c := s.Clone()
		c.Data["KeyringController"] = "***"
		return c
	}
	require.NoError(t, manager.Export(ctx, "wallet", &out, mask))
	assert.NotContains(t, out.String(), "secret")

	_, err = manager.Import(ctx, "bad", strings.NewReader("{"), nil)
	assert.Error(t, err)
	assert.ErrorIs(t, manager.Export(ctx, "missing", &out, nil), domain.ErrStateNotFound)
}

func TestManager_ImportMaskedHoldsLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	manager := vault.NewManager(store, vault.WithLocker(redisadapter.NewLocker(client, "test:")))
	mask := func(s *domain.State) *domain.State {
		c := s.Clone()
		c.Data["KeyringController"] = map[string]any{"vault": "***"}
		return c
	}
	raw := `{"meta":{"version":75},"data":{"KeyringController":{"vault":"secret"}}}`

	// Another replica holds the lock, so nothing is written
	require.NoError(t, mr.Set("test:lock:wallet", "foreign"))
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	_, err := manager.Import(ctx, "wallet", strings.NewReader(raw), mask)
	require.Error(t, err)
	_, err = store.Load(context.Background(), "wallet")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	mr.Del("test:lock:wallet")
	state, err := manager.Import(context.Background(), "wallet", strings.NewReader(raw), mask)
	require.NoError(t, err)
	assert.Equal(t, "***", state.Data["KeyringController"].(map[string]any)["vault"])

	stored, err := store.Load(context.Background(), "wallet")
	require.NoError(t, err)
	assert.Equal(t, "***", stored.Data["KeyringController"].(map[string]any)["vault"])
	assert.False(t, mr.Exists("test:lock:wallet"))
}
