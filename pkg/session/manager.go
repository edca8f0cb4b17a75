package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/vozgraph/internal/logging"
	"github.com/aretw0/vozgraph/pkg/automaton"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/aretw0/vozgraph/pkg/ports"
)

// DefaultHistoryLimit is how many entries a session keeps.
const DefaultHistoryLimit = 20

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store      ports.SessionStore
	classifier *grammar.Classifier

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	limit   int
	now     func() time.Time
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHistoryLimit sets how many entries each session keeps. Zero keeps all.
func WithHistoryLimit(limit int) Option {
	return func(m *Manager) {
		m.limit = limit
	}
}

// WithClassifier replaces the default permissive classifier.
func WithClassifier(c *grammar.Classifier) Option {
	return func(m *Manager) {
		m.classifier = c
	}
}

// WithLifecycleHooks installs observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		classifier: grammar.NewClassifier(),
		locks:      make(map[string]*lockEntry),
		lockTTL:    DefaultLockTTL,
		limit:      DefaultHistoryLimit,
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// activeLocks reports how many sessions currently hold lock entries.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Classifier returns the classifier used for recorded commands.
func (m *Manager) Classifier() *grammar.Classifier {
	return m.classifier
}

// Analyze classifies raw text without touching any session.
func (m *Manager) Analyze(ctx context.Context, raw string) grammar.Analysis {
	a := m.classifier.Analyze(raw)
	if m.hooks.OnAnalyze != nil {
		m.hooks.OnAnalyze(ctx, &domain.CommandEvent{
			Timestamp: m.now(),
			Type:      domain.EventCommandAnalyzed,
			Command:   raw,
			Category:  a.Classification.Category,
			Valid:     a.Valid,
		})
	}
	return a
}

// Recorded is the outcome of recording one command.
type Recorded struct {
	Analysis grammar.Analysis    `json:"analysis"`
	Entry    domain.HistoryEntry `json:"entry"`
	Session  *domain.Session     `json:"session"`
}

// Record analyses a command and appends it to the session history, creating
// the session on first use. Invalid commands are recorded too.
func (m *Manager) Record(ctx context.Context, sessionID, command string) (*Recorded, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, domain.ErrEmptyCommand
	}

	var out *Recorded
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}

		a := m.classifier.Analyze(command)
		now := m.now()
		entry := domain.NewHistoryEntry(command, a.Tokens, a.Valid, now)

		s.Append(entry, m.limit)
		s.UpdatedAt = now
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		out = &Recorded{Analysis: a, Entry: entry, Session: s}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("command recorded",
		"session_id", sessionID,
		"category", out.Analysis.Classification.Category.String(),
		"valid", out.Entry.Valid,
	)
	if m.hooks.OnRecord != nil {
		m.hooks.OnRecord(ctx, &domain.CommandEvent{
			Timestamp: m.now(),
			Type:      domain.EventCommandRecorded,
			SessionID: sessionID,
			Command:   command,
			Category:  out.Analysis.Classification.Category,
			Valid:     out.Entry.Valid,
		})
	}
	return out, nil
}

// Import appends externally recorded entries in their given order.
func (m *Manager) Import(ctx context.Context, sessionID string, entries []domain.HistoryEntry) (*domain.Session, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	var out *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			s.Append(e, m.limit)
		}
		s.UpdatedAt = m.now()
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = s
		return nil
	})
	return out, err
}

// UpdateGame stores the game context echoed alongside the automaton.
func (m *Manager) UpdateGame(ctx context.Context, sessionID string, game domain.GameContext) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		s.Game = game
		s.UpdatedAt = m.now()
		return m.store.Save(ctx, s)
	})
}

// Reset clears a session's history while keeping the session itself.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		s.History = []domain.HistoryEntry{}
		s.LastCommand = ""
		s.UpdatedAt = m.now()
		return m.store.Save(ctx, s)
	})
	if err != nil {
		return err
	}
	if m.hooks.OnReset != nil {
		m.hooks.OnReset(ctx, sessionID)
	}
	return nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrStart loads a session, creating and persisting an empty one if missing.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		loaded, err := m.store.Load(ctx, sessionID)
		if err == nil {
			s = loaded
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		s = domain.NewSession(sessionID, m.now())
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return s, err
}

// History returns a snapshot of the session history.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	s, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Automaton builds the session automaton, closed if requested.
func (m *Manager) Automaton(ctx context.Context, sessionID string, closed bool) (*domain.Automaton, error) {
	history, err := m.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a := automaton.Build(history)
	if closed {
		a = automaton.Close(a)
	}
	for _, d := range a.Diagnostics {
		m.logger.Warn("history entry skipped or flagged",
			"session_id", sessionID,
			"index", d.Index,
			"reason", d.Reason,
		)
	}
	return a, nil
}

// FanOut builds the audit projection of the session history.
func (m *Manager) FanOut(ctx context.Context, sessionID string) (domain.Graph, error) {
	history, err := m.History(ctx, sessionID)
	if err != nil {
		return domain.Graph{}, err
	}
	return automaton.ProjectFanOut(history), nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// loadOrNew must be called with the session lock held.
func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession(sessionID, m.now()), nil
	}
	return nil, fmt.Errorf("failed to load session: %w", err)
}
