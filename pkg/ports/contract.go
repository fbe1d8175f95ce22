package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	stateID := "contract-test-state-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a state
		state := domain.NewState(75)
		state.Data["PreferencesController"] = map[string]any{
			"advancedGasFee": map[string]any{"maxBaseFee": 10, "priorityFee": "2"},
		}
		state.Data["NetworkController"] = map[string]any{
			"provider": map[string]any{"chainId": "0x5"},
		}

		// 2. Save
		err := store.Save(ctx, stateID, state)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, stateID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, 75, loaded.Meta.Version)

		// JSON-backed stores hand numbers back as json.Number; compare documents.
		want, _ := json.Marshal(state)
		got, _ := json.Marshal(loaded)
		assert.JSONEq(t, string(want), string(got))
	})

	t.Run("Load Isolated From Caller", func(t *testing.T) {
		state := domain.NewState(1)
		state.Data["A"] = map[string]any{"x": "before"}
		require.NoError(t, store.Save(ctx, stateID+"-iso", state))
		defer func() { _ = store.Delete(ctx, stateID+"-iso") }()

		state.Data["A"].(map[string]any)["x"] = "after"

		loaded, err := store.Load(ctx, stateID+"-iso")
		require.NoError(t, err)
		assert.Equal(t, "before", loaded.Data["A"].(map[string]any)["x"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, stateID, domain.NewState(76)))

		loaded, err := store.Load(ctx, stateID)
		require.NoError(t, err)
		assert.Equal(t, 76, loaded.Meta.Version)
		assert.Empty(t, loaded.Data)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+stateID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, stateID, domain.NewState(1))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, stateID)
		require.NoError(t, err, "Delete should not return error")

		// Verify gone
		_, err = store.Load(ctx, stateID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		// Deleting again is not an error
		assert.NoError(t, store.Delete(ctx, stateID))
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 states
		id1 := stateID + "-1"
		id2 := stateID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(1))
		_ = store.Save(ctx, id2, domain.NewState(1))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
