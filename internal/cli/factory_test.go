package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/vozgraph/internal/adapters/file"
	"github.com/aretw0/vozgraph/internal/config"
	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/pkg/adapters/memory"
	"github.com/aretw0/vozgraph/pkg/adapters/redis"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestOpenBackend(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		b, err := OpenBackend(config.StoreConfig{Kind: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, b.Store)
		assert.Nil(t, b.Locker)
		assert.Nil(t, b.Closer)
	})

	t.Run("File", func(t *testing.T) {
		dir := t.TempDir()
		b, err := OpenBackend(config.StoreConfig{Kind: "file", Dir: dir})
		require.NoError(t, err)
		fs, ok := b.Store.(*file.Store)
		require.True(t, ok)
		assert.Equal(t, dir, fs.BasePath)
	})

	t.Run("Redis with lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		b, err := OpenBackend(config.StoreConfig{
			Kind:            "redis",
			RedisAddr:       mr.Addr(),
			Prefix:          "test:",
			DistributedLock: true,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Closer.Close() })

		rs, ok := b.Store.(*redis.Store)
		require.True(t, ok)
		assert.Equal(t, "test:", rs.Prefix())
		assert.NotNil(t, b.Locker)
		require.NoError(t, rs.Ping(context.Background()))
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := OpenBackend(config.StoreConfig{Kind: "etcd"})
		assert.ErrorContains(t, err, "unknown store kind")
	})
}

func TestWrapStore(t *testing.T) {
	ctx := context.Background()

	t.Run("No middleware returns the store", func(t *testing.T) {
		base := memory.NewStore()
		store, err := WrapStore(base, config.StoreConfig{})
		require.NoError(t, err)
		assert.Same(t, base, store)
	})

	t.Run("Redact then encrypt", func(t *testing.T) {
		base := memory.NewStore()
		store, err := WrapStore(base, config.StoreConfig{
			EncryptionKey: testKey,
			Redact:        []string{`\d{4}`},
		})
		require.NoError(t, err)

		eng := newTestEngine(t, store)
		_, err = eng.Record(ctx, "p1", "pin 1234")
		require.NoError(t, err)

		raw, err := base.Load(ctx, "p1")
		require.NoError(t, err)
		assert.NotEmpty(t, raw.Sealed)
		assert.Empty(t, raw.History)

		h, err := eng.History(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, h, 1)
		assert.Equal(t, "pin ***", h[0].Command)
	})

	t.Run("Bad pattern", func(t *testing.T) {
		_, err := WrapStore(memory.NewStore(), config.StoreConfig{Redact: []string{"("}})
		assert.ErrorContains(t, err, "redaction")
	})

	t.Run("Bad key", func(t *testing.T) {
		_, err := WrapStore(memory.NewStore(), config.StoreConfig{EncryptionKey: "abcd"})
		assert.Error(t, err)
	})
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Store.Kind = "file"
	cfg.Store.Dir = t.TempDir()
	cfg.History.Limit = 3
	cfg.Classifier.Strict = true

	metrics := observability.NewMetrics()
	eng, err := NewEngine(cfg, logging.NewNop(), metrics)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	assert.True(t, eng.Strict())
	assert.Same(t, metrics, eng.Metrics())

	for _, cmd := range []string{"arriba", "abajo", "derecha ya", "izquierda"} {
		_, err := eng.Record(ctx, "p1", cmd)
		require.NoError(t, err)
	}
	h, err := eng.History(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.False(t, h[1].Valid, "strict mode rejects trailing tokens")

	ids, err := file.New(cfg.Store.Dir).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestCreateLogger(t *testing.T) {
	_, err := CreateLogger(config.LogConfig{Level: "loud"}, false, false)
	assert.Error(t, err)

	logger, err := CreateLogger(config.LogConfig{Level: "warn"}, false, false)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), -4))

	logger, err = CreateLogger(config.LogConfig{Level: "warn", Format: "json"}, true, false)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	logger, err = CreateLogger(config.LogConfig{Level: "loud"}, false, true)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
	assert.True(t, strings.Contains(sc.Err().Error(), "canceled"))
}

func TestCreateLogger_UnknownFormat(t *testing.T) {
	_, err := CreateLogger(config.LogConfig{Level: "info", Format: "xml"}, false, false)
	assert.Error(t, err)
}
