package sse

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, context.CancelFunc) {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m, cancel
}

func TestManager_BroadcastsToClients(t *testing.T) {
	m, _ := newTestManager(t)

	a, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)
	b, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())
	assert.True(t, strings.HasPrefix(a.ID, "sse_"))

	m.Emit(NewFavoriteAddedEvent("7"))

	for _, c := range []*Client{a, b} {
		select {
		case evt := <-c.EventChan:
			assert.Equal(t, EventFavoriteAdded, evt.Type)
			data, ok := evt.Data.(FavoriteEventData)
			require.True(t, ok)
			assert.Equal(t, "7", data.VerseID)
			assert.True(t, data.IsFavorite)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestManager_Disconnect(t *testing.T) {
	m, _ := newTestManager(t)

	c, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestManager_EmitIgnoresForeignTypes(t *testing.T) {
	m, _ := newTestManager(t)
	c, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)

	m.Emit("not an event")
	m.Emit(NewFavoriteRemovedEvent("1"))

	select {
	case evt := <-c.EventChan:
		assert.Equal(t, EventFavoriteRemoved, evt.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestManager_ShutdownClosesClients(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	c, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	// Emit after shutdown is dropped silently.
	m.Emit(NewHeartbeatEvent())

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

func TestHandler_StreamsConnectedEvent(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "retry: 3000\n")
	assert.Contains(t, rec.Body.String(), "event: connected\n")
	assert.Equal(t, 0, m.ClientCount())
}

func TestHandler_RejectsNonGet(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestManager_AssignsSequentialIDs(t *testing.T) {
	m, _ := newTestManager(t)
	c, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)

	m.Emit(NewFavoriteAddedEvent("1"))
	m.Emit(NewFavoriteRemovedEvent("1"))

	first := receive(t, c)
	second := receive(t, c)
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
	assert.Equal(t, uint64(2), m.LastEventID())
}

func TestManager_TypeFilter(t *testing.T) {
	m, _ := newTestManager(t)
	c, err := m.Connect(ConnectOptions{Types: []EventType{EventCatalogReloaded}})
	require.NoError(t, err)

	m.Emit(NewFavoriteAddedEvent("1"))
	m.Emit(NewCatalogReloadedEvent(3, 10, 4, 12))

	evt := receive(t, c)
	assert.Equal(t, EventCatalogReloaded, evt.Type)
	assert.Empty(t, c.EventChan)
}

func TestManager_ReplaysFromLastEventID(t *testing.T) {
	m, _ := newTestManager(t)
	watcher, err := m.Connect(ConnectOptions{})
	require.NoError(t, err)

	for _, v := range []string{"1", "2", "3"} {
		m.Emit(NewFavoriteAddedEvent(v))
	}
	for range 3 {
		receive(t, watcher)
	}

	c, err := m.Connect(ConnectOptions{LastEventID: 1})
	require.NoError(t, err)

	var got []string
	for range 2 {
		got = append(got, receive(t, c).Data.(FavoriteEventData).VerseID)
	}
	assert.Equal(t, []string{"2", "3"}, got)
}

func TestManager_HistoryIsBounded(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	for i := range historySize + 10 {
		m.broadcast(NewFavoriteAddedEvent(strconv.Itoa(i)))
	}

	c, err := m.Connect(ConnectOptions{LastEventID: 1})
	require.NoError(t, err)
	first := receive(t, c)
	assert.Equal(t, uint64(11), first.ID)
}

func TestHandler_RejectsBadLastEventID(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewHandler(m, slog.New(slog.DiscardHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Last-Event-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseConnectOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?types=favorite.added,+catalog.reloaded&last_event_id=9", nil)
	opts, err := parseConnectOptions(req)
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventFavoriteAdded, EventCatalogReloaded}, opts.Types)
	assert.Equal(t, uint64(9), opts.LastEventID)

	req.Header.Set("Last-Event-ID", "12")
	opts, err = parseConnectOptions(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), opts.LastEventID)
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	evt := NewFavoriteAddedEvent("5")
	evt.ID = 42
	require.NoError(t, writeEvent(&buf, evt))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "id: 42\nevent: favorite.added\ndata: {"))
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
	assert.Contains(t, out, `"verse_id":"5"`)

	buf.Reset()
	require.NoError(t, writeEvent(&buf, NewHeartbeatEvent()))
	assert.True(t, strings.HasPrefix(buf.String(), "event: heartbeat\n"))
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
		return Event{}
	}
}
