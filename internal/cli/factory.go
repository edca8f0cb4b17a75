// Package cli wires configuration into a ready-to-use vozgraph Engine and
// hosts the interactive loop shared by the command-line tools.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/adapters/file"
	"github.com/aretw0/vozgraph/internal/config"
	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/pkg/adapters/memory"
	"github.com/aretw0/vozgraph/pkg/adapters/redis"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/aretw0/vozgraph/pkg/persistence/middleware"
	"github.com/aretw0/vozgraph/pkg/ports"
	"github.com/aretw0/vozgraph/pkg/session"
)

// Backend is the session store selected by configuration, before any
// middleware is applied.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Closer io.Closer
}

// OpenBackend creates the store named by cfg.Kind.
func OpenBackend(cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Kind {
	case "", "memory":
		return &Backend{Store: memory.NewStore()}, nil
	case "file":
		return &Backend{Store: file.New(cfg.Dir)}, nil
	case "redis":
		var opts []redis.Option
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		b := &Backend{Store: store, Closer: store}
		if cfg.DistributedLock {
			b.Locker = redis.NewLocker(store.Client(), store.Prefix())
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

// WrapStore applies the redaction and encryption middlewares requested by cfg.
// Redaction runs first so that masked text is what gets sealed.
func WrapStore(store ports.SessionStore, cfg config.StoreConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware

	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			return nil, fmt.Errorf("failed to configure redaction: %w", err)
		}
		mws = append(mws, mw)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure encryption: %w", err)
		}
		mws = append(mws, mw)
	}

	return middleware.Chain(store, mws...), nil
}

// NewEngine builds an Engine from the full configuration. metrics may be nil.
func NewEngine(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*vozgraph.Engine, error) {
	backend, err := OpenBackend(cfg.Store)
	if err != nil {
		return nil, err
	}
	store, err := WrapStore(backend.Store, cfg.Store)
	if err != nil {
		if backend.Closer != nil {
			_ = backend.Closer.Close()
		}
		return nil, err
	}

	opts := []vozgraph.Option{
		vozgraph.WithStore(store),
		vozgraph.WithLogger(logger),
		vozgraph.WithLifecycleHooks(observability.LoggingHooks(logger)),
		vozgraph.WithHistoryLimit(cfg.History.Limit),
		vozgraph.WithStrict(cfg.Classifier.Strict),
	}
	if metrics != nil {
		opts = append(opts, vozgraph.WithMetrics(metrics))
	}
	if backend.Locker != nil {
		opts = append(opts, vozgraph.WithLocker(backend.Locker, session.DefaultLockTTL))
	}
	if backend.Closer != nil {
		opts = append(opts, vozgraph.WithCloser(backend.Closer))
	}

	logger.Debug("engine configured",
		"store", cfg.Store.Kind,
		"strict", cfg.Classifier.Strict,
		"history_limit", cfg.History.Limit,
		"encrypted", cfg.Store.EncryptionKey != "",
	)
	return vozgraph.New(opts...), nil
}

// CreateLogger builds the application logger. Debug forces debug level;
// quiet discards everything.
func CreateLogger(cfg config.LogConfig, debug, quiet bool) (*slog.Logger, error) {
	if quiet {
		return logging.NewNop(), nil
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(os.Stderr, level, cfg.Format)
}
