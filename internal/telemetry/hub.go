//
//
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/radio-control/cellstate/internal/config"
	"github.com/radio-control/cellstate/internal/metrics"
	"github.com/radio-control/cellstate/internal/notify"
)

// ErrStopped is returned by Subscribe after Stop.
var ErrStopped = errors.New("telemetry hub stopped")

// Event types that are not tracker transitions.
const (
	TypeReady     = "ready"
	TypeHeartbeat = "heartbeat"
)

// Event is one frame on the stream.
type Event struct {
	ID   int64       `json:"id,omitempty"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"-"`
}

// SnapshotFunc returns the state sent in the ready frame.
type SnapshotFunc func() interface{}

// Client is one connected stream.
type Client struct {
	ID     string
	Writer http.ResponseWriter
	LastID int64
	Events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	kinds  map[string]bool
	mu     sync.Mutex // guards Writer
}

func (c *Client) wants(eventType string) bool {
	if eventType == TypeHeartbeat || len(c.kinds) == 0 {
		return true
	}
	return c.kinds[eventType]
}

// Hub fans events out to stream clients and keeps a replay buffer for
// Last-Event-ID resume.
//
// h.mu is never held while taking Client.mu or EventBuffer.mu.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	lastID  atomic.Int64
	buffer  *EventBuffer

	cfg      config.TelemetryConfig
	snapshot SnapshotFunc
	logger   *slog.Logger
	now      func() time.Time

	heartbeatTicker *time.Ticker
	stopHeartbeat   chan struct{}

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a hub. snapshot may be nil.
func NewHub(cfg config.TelemetryConfig, snapshot SnapshotFunc, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClientQueueSize <= 0 {
		cfg.ClientQueueSize = 100
	}
	return &Hub{
		clients:  make(map[string]*Client),
		buffer:   NewEventBuffer(cfg.EventBufferSize, cfg.EventBufferRetention),
		cfg:      cfg,
		snapshot: snapshot,
		logger:   logger.With("component", "telemetry"),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Subscribe serves one stream until the client goes away or the hub stops.
// The optional "kinds" query parameter is a comma-separated event filter.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	select {
	case <-h.done:
		return ErrStopped
	default:
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	clientCtx, cancel := context.WithCancel(ctx)

	var lastID int64
	if s := r.Header.Get("Last-Event-ID"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			lastID = id
		}
	}

	client := &Client{
		ID:     uuid.NewString(),
		Writer: w,
		LastID: lastID,
		Events: make(chan Event, h.cfg.ClientQueueSize),
		ctx:    clientCtx,
		cancel: cancel,
		kinds:  parseKinds(r.URL.Query().Get("kinds")),
	}

	mark, err := h.sendReadyEvent(client)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	// Register before replaying so nothing published in between is lost.
	// Replay and live delivery are both ordered by ID.
	h.mu.Lock()
	h.clients[client.ID] = client
	if h.heartbeatTicker == nil {
		h.startHeartbeat()
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.TelemetryClients.Set(float64(n))
	h.logger.Debug("telemetry client connected", "client", client.ID, "lastEventId", lastID)

	from := lastID
	if from == 0 {
		from = mark
	}
	if err := h.replayEvents(client, from); err != nil {
		h.unregisterClient(client.ID)
		return fmt.Errorf("failed to replay events: %w", err)
	}

	h.handleClient(client)
	return nil
}

func parseKinds(s string) map[string]bool {
	if s == "" {
		return nil
	}
	kinds := make(map[string]bool)
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds[k] = true
		}
	}
	return kinds
}

// Publish assigns the next ID, buffers the event and queues it for every
// matching client. Slow clients miss events rather than block publishers.
func (h *Hub) Publish(event Event) {
	select {
	case <-h.done:
		return
	default:
	}

	if event.At.IsZero() {
		event.At = h.now()
	}
	event.ID = h.lastID.Add(1)
	if event.Type != TypeHeartbeat {
		h.buffer.AddEvent(event)
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.wants(event.Type) {
			continue
		}
		select {
		case <-c.ctx.Done():
		case <-h.done:
			return
		case c.Events <- event:
		case <-time.After(100 * time.Millisecond):
			h.logger.Warn("dropping event for slow client", "client", c.ID, "event", event.ID)
		}
	}
}

// PublishNotify forwards a tracker event. It is the bus subscriber.
func (h *Hub) PublishNotify(ev notify.Event) {
	h.Publish(Event{Type: ev.Kind.String(), Data: ev, At: ev.At})
}

// sendReadyEvent returns the last event ID the snapshot covers.
func (h *Hub) sendReadyEvent(client *Client) (int64, error) {
	mark := h.lastID.Load()
	data := map[string]interface{}{"lastEventId": mark}
	if h.snapshot != nil {
		data["snapshot"] = h.snapshot()
	}
	return mark, h.sendEventToClient(client, Event{Type: TypeReady, Data: data})
}

func (h *Hub) replayEvents(client *Client, lastID int64) error {
	if lastID > client.LastID {
		client.LastID = lastID
	}
	for _, ev := range h.buffer.GetEventsAfter(lastID, h.now()) {
		if !client.wants(ev.Type) {
			continue
		}
		if err := h.sendEventToClient(client, ev); err != nil {
			return err
		}
		client.LastID = ev.ID
	}
	return nil
}

func (h *Hub) sendEventToClient(client *Client, event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if event.ID > 0 {
		if _, err := fmt.Fprintf(client.Writer, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(client.Writer, "event: %s\n", event.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(client.Writer, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

func (h *Hub) handleClient(client *Client) {
	// Events is never closed: publishers may still hold the client.
	defer h.unregisterClient(client.ID)

	for {
		select {
		case <-client.ctx.Done():
			return
		case event := <-client.Events:
			// Already delivered by replay.
			if event.ID != 0 && event.ID <= client.LastID {
				continue
			}
			if err := h.sendEventToClient(client, event); err != nil {
				h.logger.Debug("telemetry client write failed", "client", client.ID, "error", err)
				return
			}
			client.LastID = event.ID
		}
	}
}

func (h *Hub) unregisterClient(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		client.cancel()
		delete(h.clients, id)
		if len(h.clients) == 0 {
			h.stopHeartbeatLocked()
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.TelemetryClients.Set(float64(n))
		h.logger.Debug("telemetry client disconnected", "client", id)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// startHeartbeat must be called with h.mu held.
func (h *Hub) startHeartbeat() {
	interval := h.cfg.HeartbeatInterval
	if j := h.cfg.HeartbeatJitter; j > 0 {
		interval += time.Duration(rand.Int64N(int64(2*j))) - j
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	h.heartbeatTicker = ticker
	h.stopHeartbeat = stop

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.Publish(Event{
					Type: TypeHeartbeat,
					Data: map[string]interface{}{"ts": h.now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

func (h *Hub) stopHeartbeatLocked() {
	if h.heartbeatTicker == nil {
		return
	}
	h.heartbeatTicker.Stop()
	h.heartbeatTicker = nil
	close(h.stopHeartbeat)
	h.stopHeartbeat = nil
}

// Stop disconnects every client and waits for the heartbeat to exit, at most
// five seconds.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		for _, c := range h.clients {
			c.cancel()
		}
		h.stopHeartbeatLocked()
		h.mu.Unlock()

		finished := make(chan struct{})
		go func() {
			h.wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			h.logger.Warn("telemetry heartbeat did not stop in time")
		}
	})
}

// EventBuffer is a bounded replay buffer. Events older than the retention
// are not replayed.
type EventBuffer struct {
	mu        sync.RWMutex
	events    []Event
	capacity  int
	retention time.Duration
}

// NewEventBuffer creates a buffer. A zero retention keeps events until they
// are pushed out by capacity.
func NewEventBuffer(capacity int, retention time.Duration) *EventBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventBuffer{
		events:    make([]Event, 0, capacity),
		capacity:  capacity,
		retention: retention,
	}
}

// AddEvent appends an event, evicting the oldest when full.
func (b *EventBuffer) AddEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[len(b.events)-b.capacity:]
	}
}

// GetEventsAfter returns the retained events with an ID above lastID.
func (b *EventBuffer) GetEventsAfter(lastID int64, now time.Time) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, ev := range b.events {
		if ev.ID <= lastID {
			continue
		}
		if b.retention > 0 && now.Sub(ev.At) > b.retention {
			continue
		}
		result = append(result, ev)
	}
	return result
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
