package sse

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rizwanabrish101/shayari/internal/id"
)

const (
	queueSize        = 256
	clientBufferSize = 64
	// historySize bounds how far back a reconnecting client can resume.
	historySize = 128
)

// ConnectOptions selects what a client receives.
type ConnectOptions struct {
	// Types limits delivery to these event types. Empty means all.
	// Heartbeats are always delivered.
	Types []EventType
	// LastEventID replays retained events newer than this id, as sent by
	// browsers in the Last-Event-ID header on reconnect.
	LastEventID uint64
}

// Client is one connected event stream.
type Client struct {
	ID          string
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}

	types []EventType
}

func (c *Client) wants(t EventType) bool {
	return t == EventHeartbeat || len(c.types) == 0 || slices.Contains(c.types, t)
}

// offer never blocks; a client that falls behind loses events and is
// expected to resync from Last-Event-ID.
func (c *Client) offer(evt Event) bool {
	select {
	case c.EventChan <- evt:
		return true
	default:
		return false
	}
}

// Manager fans events out to connected clients. It implements
// store.EventEmitter.
type Manager struct {
	logger            *slog.Logger
	heartbeatInterval time.Duration

	queue chan Event
	wg    sync.WaitGroup

	// mu guards clients, history, seq and closed.
	mu      sync.Mutex
	clients map[string]*Client
	history []Event
	seq     uint64
	closed  bool
}

// NewManager creates a Manager. Call Start to begin delivery.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
		queue:             make(chan Event, queueSize),
		clients:           make(map[string]*Client),
	}
}

// Start delivers queued events and heartbeats until ctx is done or the queue
// is closed by Shutdown.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	m.logger.Info("SSE manager starting")
	for {
		select {
		case evt, ok := <-m.queue:
			if !ok {
				return
			}
			m.broadcast(evt)
		case <-ticker.C:
			m.broadcast(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, delivers what is queued and disconnects
// every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for evt := range m.queue {
			m.broadcast(evt)
		}
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE drain timed out, pending events dropped")
	}

	m.wg.Wait()
	m.closeAllClients()
	m.logger.Info("SSE manager shut down")
	return nil
}

// Emit queues an event. Values that are not an Event are ignored.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("ignoring non-SSE event", "type", fmt.Sprintf("%T", event))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- evt:
	default:
		m.logger.Error("SSE queue full, dropping event", "event_type", evt.Type)
	}
}

// broadcast numbers evt, records it for replay and offers it to every
// interested client.
func (m *Manager) broadcast(evt Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if evt.Type != EventHeartbeat {
		m.seq++
		evt.ID = m.seq
		m.history = append(m.history, evt)
		if len(m.history) > historySize {
			m.history = slices.Delete(m.history, 0, len(m.history)-historySize)
		}
	}

	var delivered, dropped int
	for _, c := range m.clients {
		if !c.wants(evt.Type) {
			continue
		}
		if c.offer(evt) {
			delivered++
			continue
		}
		dropped++
		m.logger.Warn("dropped event for slow client", "client_id", c.ID, "event_type", evt.Type)
	}

	if evt.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"delivered", delivered,
			"dropped", dropped)
	}
}

// Connect registers a client. Retained events newer than opts.LastEventID are
// queued on the client before any live event.
func (m *Manager) Connect(opts ConnectOptions) (*Client, error) {
	clientID, err := id.Generate(id.PrefixClient)
	if err != nil {
		return nil, err
	}

	c := &Client{
		ID:          clientID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		types:       slices.Clone(opts.Types),
	}

	m.mu.Lock()
	replayed := 0
	if opts.LastEventID > 0 {
		for _, evt := range m.history {
			if evt.ID > opts.LastEventID && c.wants(evt.Type) && c.offer(evt) {
				replayed++
			}
		}
	}
	m.clients[c.ID] = c
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		"client_id", c.ID,
		"replayed", replayed,
		"total_clients", total)
	return c, nil
}

// Disconnect removes a client and closes its channels. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	total := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	close(c.Done)
	close(c.EventChan)

	m.logger.Info("SSE client disconnected",
		"client_id", clientID,
		"duration", time.Since(c.ConnectedAt),
		"total_clients", total)
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// LastEventID returns the id of the most recent non-heartbeat event.
func (m *Manager) LastEventID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		close(c.Done)
		close(c.EventChan)
	}
	clear(m.clients)
}
