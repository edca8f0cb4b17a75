package vozgraph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/pkg/adapters/memory"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/aretw0/vozgraph/pkg/ports"
	"github.com/aretw0/vozgraph/pkg/session"
)

// Engine is the high-level entry point for the vozgraph library.
// It wraps the session manager and provides a simplified API for consumers.
type Engine struct {
	manager *session.Manager
	store   ports.SessionStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	metrics *observability.Metrics
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	strict  bool
	limit   int
	clock   func() time.Time
	closers []io.Closer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store. The default is an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMetrics feeds command events and automaton sizes into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStrict switches the classifier to token-exact matching.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithHistoryLimit caps how many entries each session keeps. Zero keeps all.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) {
		e.limit = limit
	}
}

// WithClock overrides the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithCloser registers a resource released by Close, such as a Redis client.
func WithCloser(c io.Closer) Option {
	return func(e *Engine) {
		e.closers = append(e.closers, c)
	}
}

// New initializes a vozgraph Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		limit: session.DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = observability.CombineHooks(eng.hooks, eng.metrics.Hooks())
	}

	managerOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithHistoryLimit(eng.limit),
		session.WithClassifier(grammar.NewClassifier(grammar.WithStrict(eng.strict))),
		session.WithLifecycleHooks(hooks),
	}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	if eng.clock != nil {
		managerOpts = append(managerOpts, session.WithClock(eng.clock))
	}
	eng.manager = session.NewManager(eng.store, managerOpts...)

	return eng
}

// Analyze normalizes, classifies and derives raw text without recording it.
func (e *Engine) Analyze(ctx context.Context, raw string) grammar.Analysis {
	return e.manager.Analyze(ctx, raw)
}

// Record analyzes a command and appends it to the session history.
func (e *Engine) Record(ctx context.Context, sessionID, command string) (*session.Recorded, error) {
	return e.manager.Record(ctx, sessionID, command)
}

// Import appends already-recorded entries, e.g. from a history file.
func (e *Engine) Import(ctx context.Context, sessionID string, entries []domain.HistoryEntry) (*domain.Session, error) {
	return e.manager.Import(ctx, sessionID, entries)
}

// Session returns the stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.manager.Load(ctx, sessionID)
}

// History returns a snapshot of the session history.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	return e.manager.History(ctx, sessionID)
}

// Automaton builds the session automaton, closed with λ (fin) if requested.
func (e *Engine) Automaton(ctx context.Context, sessionID string, closed bool) (*domain.Automaton, error) {
	a, err := e.manager.Automaton(ctx, sessionID, closed)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ObserveAutomaton(a)
	}
	return a, nil
}

// FanOut builds the per-command audit graph of the session history.
func (e *Engine) FanOut(ctx context.Context, sessionID string) (domain.Graph, error) {
	return e.manager.FanOut(ctx, sessionID)
}

// UpdateGame stores the game statistics echoed by the game.
func (e *Engine) UpdateGame(ctx context.Context, sessionID string, game domain.GameContext) error {
	return e.manager.UpdateGame(ctx, sessionID, game)
}

// Reset clears the session history.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	return e.manager.Reset(ctx, sessionID)
}

// Delete removes the session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.manager.Delete(ctx, sessionID)
}

// Sessions lists stored session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// Manager exposes the underlying session manager.
func (e *Engine) Manager() *session.Manager {
	return e.manager
}

// Metrics returns the configured collectors, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Strict reports whether token-exact classification is enabled.
func (e *Engine) Strict() bool {
	return e.strict
}

// Close releases every registered closer.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
