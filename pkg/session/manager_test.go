package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vozgraph/pkg/adapters/memory"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/grammar"
	"github.com/aretw0/vozgraph/pkg/ports"
	"github.com/aretw0/vozgraph/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates I/O latency so lost updates show up without locking.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, sess)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestManager_RecordSerializesWrites(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()}, session.WithHistoryLimit(0))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Record(ctx, "race", "derecha")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := manager.History(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, history, 10, "no update may be lost")
}

func TestManager_Record(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), session.WithClock(fixedClock()))
	ctx := context.Background()

	rec, err := manager.Record(ctx, "s1", "  Puerta B ")
	require.NoError(t, err)
	assert.True(t, rec.Analysis.Valid)
	assert.Equal(t, "Puerta B", rec.Entry.Command)
	assert.Equal(t, domain.TokensOf("puerta", "b"), rec.Entry.Tokens)
	assert.Equal(t, "12:00:02", rec.Entry.Timestamp)

	_, err = manager.Record(ctx, "s1", "xyz")
	require.NoError(t, err)

	s, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s.History, 2)
	assert.False(t, s.History[1].Valid)
	assert.Equal(t, "xyz", s.LastCommand)
}

func TestManager_RecordRejectsBadInput(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Record(ctx, "s1", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyCommand)

	_, err = manager.Record(ctx, "../x", "derecha")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
}

func TestManager_HistoryLimit(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < session.DefaultHistoryLimit+5; i++ {
		_, err := manager.Record(ctx, "cap", fmt.Sprintf("cmd %d", i))
		require.NoError(t, err)
	}
	history, err := manager.History(ctx, "cap")
	require.NoError(t, err)
	require.Len(t, history, session.DefaultHistoryLimit)
	assert.Equal(t, "cmd 5", history[0].Command)
}

func TestManager_AutomatonAndFanOut(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	for _, cmd := range []string{"puerta a", "cambiar", "xyz"} {
		_, err := manager.Record(ctx, "flow", cmd)
		require.NoError(t, err)
	}

	a, err := manager.Automaton(ctx, "flow", false)
	require.NoError(t, err)
	assert.Len(t, a.States, 3)
	assert.Equal(t, domain.Stats{ValidCount: 2, InvalidCount: 1, TotalCount: 3, TotalStates: 3, TotalTransitions: 2}, a.Stats)

	closed, err := manager.Automaton(ctx, "flow", true)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Len(t, closed.States, 4)

	g, err := manager.FanOut(ctx, "flow")
	require.NoError(t, err)
	assert.Equal(t, "Historial\n(3 comandos)", g.Nodes[0].Label)

	_, err = manager.Automaton(ctx, "missing", false)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_StrictClassifier(t *testing.T) {
	manager := session.NewManager(memory.NewStore(),
		session.WithClassifier(grammar.NewClassifier(grammar.WithStrict(true))))

	rec, err := manager.Record(context.Background(), "strict", "puerta a ahora")
	require.NoError(t, err)
	assert.False(t, rec.Entry.Valid)
}

func TestManager_Reset(t *testing.T) {
	var resets []string
	manager := session.NewManager(memory.NewStore(), session.WithLifecycleHooks(domain.LifecycleHooks{
		OnReset: func(_ context.Context, id string) { resets = append(resets, id) },
	}))
	ctx := context.Background()

	_, err := manager.Record(ctx, "r", "derecha")
	require.NoError(t, err)
	require.NoError(t, manager.Reset(ctx, "r"))

	s, err := manager.Load(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, s.History)
	assert.Empty(t, s.LastCommand)
	assert.Equal(t, []string{"r"}, resets)

	assert.ErrorIs(t, manager.Reset(ctx, "nobody"), domain.ErrSessionNotFound)
}

func TestManager_Hooks(t *testing.T) {
	var events []*domain.CommandEvent
	capture := func(_ context.Context, e *domain.CommandEvent) { events = append(events, e) }
	manager := session.NewManager(memory.NewStore(), session.WithLifecycleHooks(domain.LifecycleHooks{
		OnAnalyze: capture,
		OnRecord:  capture,
	}))
	ctx := context.Background()

	a := manager.Analyze(ctx, "otra vez")
	assert.Equal(t, domain.CategorySessionControl, a.Classification.Category)

	_, err := manager.Record(ctx, "h", "mantener")
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventCommandAnalyzed, events[0].Type)
	assert.Equal(t, domain.EventCommandRecorded, events[1].Type)
	assert.Equal(t, "h", events[1].SessionID)
	assert.Equal(t, domain.CategoryDoorAction, events[1].Category)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.LoadOrStart(ctx, "atomic-init")
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}()
	}
	wg.Wait()

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"atomic-init"}, ids)
}

func TestManager_ImportAndGame(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	s, err := manager.Import(ctx, "imp", []domain.HistoryEntry{
		{Command: "derecha", Valid: true, Timestamp: "10:00:00"},
		{Command: "abajo", Valid: true, Timestamp: "10:00:02"},
	})
	require.NoError(t, err)
	assert.Len(t, s.History, 2)

	require.NoError(t, manager.UpdateGame(ctx, "imp", domain.GameContext{Won: 1, PrizeDoor: "c"}))
	loaded, err := manager.Load(ctx, "imp")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Game.Won)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("boom")
}

func TestManager_DistributedLockFailure(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), session.WithLocker(failingLocker{}))
	_, err := manager.Record(context.Background(), "s", "derecha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distributed lock")
}
