package sse

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// retryMillis is the reconnect delay suggested to browsers.
	retryMillis = 3000
	// writeTimeout drops clients that stop reading.
	writeTimeout = 90 * time.Second
)

// Handler serves the event stream. Clients may pass ?types=a,b to filter
// events, and resume with the Last-Event-ID header (or ?last_event_id=).
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler for manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{manager: manager, logger: logger}
}

// ServeHTTP streams events until the client goes away or the manager closes
// the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts, err := parseConnectOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	rc, err := startStream(w)
	if err != nil {
		h.logger.Error("streaming unsupported", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(opts)
	if err != nil {
		h.logger.Error("register SSE client", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With("client_id", client.ID)

	hello := map[string]any{
		"client_id":     client.ID,
		"last_event_id": h.manager.LastEventID(),
	}
	if err := send(w, rc, Event{Type: "connected", Timestamp: time.Now(), Data: hello}); err != nil {
		log.Warn("send connected event", "error", err)
		return
	}

	for {
		select {
		case evt, ok := <-client.EventChan:
			if !ok {
				log.Debug("closed by manager")
				return
			}
			if err := send(w, rc, evt); err != nil {
				log.Debug("client went away during send", "error", err)
				return
			}
		case <-client.Done:
			log.Debug("closed by manager")
			return
		case <-r.Context().Done():
			log.Debug("client disconnected")
			return
		}
	}
}

func parseConnectOptions(r *http.Request) (ConnectOptions, error) {
	var opts ConnectOptions

	q := r.URL.Query()
	if raw := q.Get("types"); raw != "" {
		for t := range strings.SplitSeq(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.Types = append(opts.Types, EventType(t))
			}
		}
	}

	last := r.Header.Get("Last-Event-ID")
	if last == "" {
		last = q.Get("last_event_id")
	}
	if last != "" {
		n, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid last event id %q", last)
		}
		opts.LastEventID = n
	}
	return opts, nil
}

// startStream writes the event-stream headers and the retry hint.
func startStream(w http.ResponseWriter) (*http.ResponseController, error) {
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
		return nil, err
	}
	return rc, nil
}

// send writes evt in text/event-stream framing and flushes it. Writers
// without deadline support (httptest recorders) skip the write deadline.
func send(w http.ResponseWriter, rc *http.ResponseController, evt Event) error {
	if err := writeEvent(w, evt); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return nil
}

// Stream serves a single-subscriber stream: each value received on ch is
// sent as an event of type typ with data(value) as its payload. It returns
// when ch is closed or the client goes away. Stream events carry no id and
// are never replayed; a reconnecting client starts from the current value.
func Stream[T any](w http.ResponseWriter, r *http.Request, typ EventType, ch <-chan T, data func(T) any, logger *slog.Logger) {
	rc, err := startStream(w)
	if err != nil {
		logger.Error("streaming unsupported", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	log := logger.With("stream", string(typ))
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				log.Debug("subscription closed")
				return
			}
			evt := Event{Type: typ, Timestamp: time.Now(), Data: data(v)}
			if err := send(w, rc, evt); err != nil {
				log.Debug("client went away during send", "error", err)
				return
			}
		case <-r.Context().Done():
			log.Debug("client disconnected")
			return
		}
	}
}

func writeEvent(w io.Writer, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	if evt.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", evt.ID); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}
