package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/pkg/domain"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *vozgraph.Engine) {
	t.Helper()
	eng := vozgraph.New(vozgraph.WithClock(func() time.Time {
		return time.Date(2026, 5, 4, 21, 10, 0, 0, time.UTC)
	}))
	return NewHandler(eng, opts...), eng
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAnalyzeCommand(t *testing.T) {
	h, eng := newTestHandler(t)

	t.Run("JSON", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/analyze", `{"command": "¡Puerta B!"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got struct {
			Tokens         []string `json:"tokens"`
			Classification struct {
				Category string `json:"category"`
				Door     string `json:"door"`
			} `json:"classification"`
			Tree  domain.Tree `json:"tree"`
			Valid bool        `json:"valid"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, []string{"puerta", "b"}, got.Tokens)
		assert.Equal(t, "door-selection", got.Classification.Category)
		assert.Equal(t, "b", got.Classification.Door)
		assert.True(t, got.Valid)
		assert.Len(t, got.Tree.Nodes, 7)
		assert.NoError(t, got.Tree.Validate())
	})

	t.Run("Mermaid", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/analyze?format=mermaid", `{"command": "derecha"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("Bad body", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/analyze", `{"command":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Oversized input", func(t *testing.T) {
		h := NewHandler(eng, WithMaxInputSize(8))
		w := do(t, h, http.MethodPost, "/analyze", `{"command": "nueva partida ahora"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "exceeds")
	})

	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "analyze never records")
}

func TestSessionLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, cmd := range []string{"derecha", "hola", "puerta c", "cambiar"} {
		w := do(t, h, http.MethodPost, "/sessions/player-1/commands", `{"command": "`+cmd+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("List", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sessions": ["player-1"]}`, w.Body.String())
	})

	t.Run("History", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/player-1/history", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			History []domain.HistoryEntry `json:"history"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.History, 4)
		assert.Equal(t, "hola", got.History[1].Command)
		assert.False(t, got.History[1].Valid)
		assert.Equal(t, "21:10:00", got.History[0].Timestamp)
	})

	t.Run("Automaton closed", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent,
			do(t, h, http.MethodPut, "/sessions/player-1/game", `{"ganadas": 1, "perdidas": 2}`).Code)

		w := do(t, h, http.MethodGet, "/sessions/player-1/automaton?closed=true", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got AutomatonResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.Automaton.Closed)
		assert.Equal(t, 3, got.Automaton.Stats.ValidCount)
		assert.Equal(t, 1, got.Automaton.Stats.InvalidCount)
		assert.Len(t, got.Automaton.States, 5)
		require.NotNil(t, got.Game)
		assert.Equal(t, 2, got.Game.Lost)
	})

	t.Run("Automaton mermaid", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/player-1/automaton?format=mermaid", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "graph LR")
		assert.Contains(t, w.Body.String(), "class q3 current;")
	})

	t.Run("Bad closed parameter", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/player-1/automaton?closed=maybe", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("FanOut", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/player-1/fanout", "")
		require.Equal(t, http.StatusOK, w.Code)
		var g domain.Graph
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
		assert.Equal(t, "Historial\n(4 comandos)", g.Nodes[0].Label)
		assert.NoError(t, g.Validate())
	})

	t.Run("Reset", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/player-1/reset", "").Code)
		w := do(t, h, http.MethodGet, "/sessions/player-1/history", "")
		assert.JSONEq(t, `{"history": []}`, w.Body.String())
	})

	t.Run("Delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/sessions/player-1", "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/player-1", "").Code)
	})
}

func TestErrorMapping(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/ghost/automaton", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/sessions/ghost/reset", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/sessions/p1/commands", `{"command": "   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/sessions/bad%20id/commands", `{"command": "abajo"}`).Code)

	assert.Equal(t, http.StatusServiceUnavailable, statusFor(errors.Join(errors.New("lock"), context.DeadlineExceeded)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk on fire")))
}

func TestGrammarEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/grammar", "")
	require.Equal(t, http.StatusOK, w.Code)
	var g GrammarResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "S", g.Start)
	assert.Contains(t, g.Nonterminals, "monty")
	assert.Contains(t, g.Terminals, `"cambiar"`)
	assert.NotEmpty(t, g.Productions)

	w = do(t, h, http.MethodGet, "/commands", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "izquierda")
}

func TestInfoAndSpec(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "vozgraph-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.NotEmpty(t, info["version"])

	w = do(t, h, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/swagger", "").Code)
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{"/analyze", "/sessions/{id}/commands", "/sessions/{id}/automaton", "/grammar"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestHandler(t, WithCORSOrigin("https://game.example"))
	w := do(t, h, http.MethodOptions, "/analyze", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://game.example", w.Header().Get("Access-Control-Allow-Origin"))

	h, _ = newTestHandler(t, WithCORSOrigin(""))
	w = do(t, h, http.MethodGet, "/health", "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	h, _ := newTestHandler(t, WithMetrics(metrics))

	do(t, h, http.MethodPost, "/sessions/m1/commands", `{"command": "arriba"}`)
	do(t, h, http.MethodGet, "/sessions/m1/automaton", "")

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vozgraph_http_request_duration_seconds")
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.HTTPDurations), 2)
	assert.Contains(t, w.Body.String(), `route="/sessions/{id}/commands"`)
}

func TestSubscribeEvents(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/live/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	post, err := srv.Client().Post(srv.URL+"/sessions/live/commands", "application/json",
		bytes.NewReader([]byte(`{"command": "puerta a"}`)))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	var entry domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(readData()), &entry))
	assert.Equal(t, "puerta a", entry.Command)
	assert.True(t, entry.Valid)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	sm.Broadcast("s", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "flood")
	}
	assert.Len(t, ch, 10, "slow clients drop overflow")

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}
