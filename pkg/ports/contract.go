package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cooknet/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests to verify that a ConversationStore
// implementation adheres to the defined interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	identity := "contract-" + time.Now().Format("20060102150405")
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		conv := &domain.Conversation{
			Identity: identity,
			Phase:    domain.PhaseAwaitingDescription,
			Collected: domain.Collected{
				PhotoRef: "photo-1",
				PhotoURL: "https://example.test/photo-1.jpg",
				Title:    "Pie",
			},
			StartedAt: started,
		}

		require.NoError(t, store.Save(ctx, identity, conv), "Save should not return error")

		loaded, err := store.Load(ctx, identity)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, conv.Phase, loaded.Phase)
		assert.Equal(t, conv.Collected, loaded.Collected)
		assert.True(t, conv.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, identity)
		require.NoError(t, err)
		loaded.Collected.Title = "mutated"

		again, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "Pie", again.Collected.Title)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+identity)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, identity), "Delete should not return error")

		_, err := store.Load(ctx, identity)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := identity + "-1"
		id2 := identity + "-2"
		_ = store.Save(ctx, id1, domain.NewConversation(id1))
		_ = store.Save(ctx, id2, domain.NewConversation(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
