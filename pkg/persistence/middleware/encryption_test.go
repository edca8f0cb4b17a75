package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/vozgraph/pkg/adapters/memory"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/persistence/middleware"
	"github.com/aretw0/vozgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id, time.Now())
	s.Append(domain.HistoryEntry{Command: "puerta a", Tokens: domain.TokensOf("puerta", "a"), Valid: true}, 0)
	return s
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, sampleSession("enc")))

	stored, err := underlying.Load(ctx, "enc")
	require.NoError(t, err)
	assert.Empty(t, stored.History, "history must not be stored in clear")
	assert.Empty(t, stored.LastCommand)
	assert.NotEmpty(t, stored.Sealed)

	loaded, err := secure.Load(ctx, "enc")
	require.NoError(t, err)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "puerta a", loaded.History[0].Command)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, mwOld(underlying).Save(ctx, sampleSession("rot")))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	require.NoError(t, err)
	loaded, err := mwNew(underlying).Load(ctx, "rot")
	require.NoError(t, err)
	assert.Equal(t, "puerta a", loaded.History[0].Command)

	mwWrong, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = mwWrong(underlying).Load(ctx, "rot")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, sampleSession("plain")))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestNewEncryptionMiddleware_KeySize(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)
}
