package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, now)
		s.Append(domain.NewHistoryEntry("puerta a", domain.TokensOf("puerta", "a"), true, now), 0)
		s.Append(domain.NewHistoryEntry("xyz", domain.TokensOf("xyz"), false, now.Add(time.Second)), 0)
		s.Game = domain.GameContext{Won: 2, Lost: 1, SelectedDoor: "a"}

		require.NoError(t, store.Save(ctx, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.History, 2)
		assert.Equal(t, "puerta a", loaded.History[0].Command)
		assert.Equal(t, domain.TokensOf("puerta", "a"), loaded.History[0].Tokens)
		assert.True(t, loaded.History[0].Valid)
		assert.Equal(t, "10:00:01", loaded.History[1].Timestamp)
		assert.False(t, loaded.History[1].Valid)
		assert.Equal(t, "xyz", loaded.LastCommand)
		assert.Equal(t, 2, loaded.Game.Won)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.History[0].Command = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "puerta a", again.History[0].Command)
	})

	t.Run("Missing validity flag survives", func(t *testing.T) {
		id := sessionID + "-malformed"
		defer func() { _ = store.Delete(ctx, id) }()

		s := domain.NewSession(id, now)
		s.Append(domain.NewHistoryEntry("derecha", domain.TokensOf("derecha"), true, now), 0)
		s.Append(domain.NewHistoryEntry("arriba", domain.TokensOf("arriba"), false, now).MarkValidMissing(), 0)
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, loaded.History, 2)
		assert.Empty(t, loaded.History[0].Malformed())
		assert.Equal(t, "missing validity flag", loaded.History[1].Malformed())
		assert.False(t, loaded.History[1].Valid)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, now)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, now)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, now)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
