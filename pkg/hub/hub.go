package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name string
	log  *slog.Logger

	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	// done is closed when Run returns; later joins and leaves do not block.
	done     chan struct{}
	doneOnce sync.Once

	// mu guards reads of the client count from other goroutines
	mu sync.RWMutex

	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a hub. name appears in log lines.
func New(name string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		name:       name,
		log:        log.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.doneOnce.Do(func() { close(h.done) })
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", "clients", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow consumer
					close(c.send)
					delete(h.clients, c)
					h.log.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// join hands c to Run. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave removes c. After the hub has stopped there is nothing to leave.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client. When the queue is full the message
// is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastFrame queues a protocol frame. It matches server.Config.Mirror.
func (h *Hub) BroadcastFrame(frame []byte) {
	h.Broadcast(NewTextMessage(append([]byte(nil), frame...)))
}

// BroadcastJSON encodes and queues v.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded on a full queue.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
