package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/statelift/pkg/adapters/memory"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = store.Save(ctx, "shared", domain.NewState(v))
			_, _ = store.Load(ctx, "shared")
		}(i)
	}
	wg.Wait()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, ids)
}
