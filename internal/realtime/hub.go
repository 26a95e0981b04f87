package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub tracks live connections and delivers pushes to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger.With("component", "hub")}
}

// Publish queues an event frame for connID. It never blocks: a connection
// whose buffer is full loses the frame and is closed.
func (h *Hub) Publish(connID, event string, payload any) {
	h.send(connID, Outbound{Type: FrameEvent, Event: event, Data: payload})
}

func (h *Hub) ack(connID, id, event string, data any) {
	h.send(connID, Outbound{Type: FrameAck, ID: id, Event: event, Data: data})
}

func (h *Hub) send(connID string, frame Outbound) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to encode frame", "conn_id", connID, "event", frame.Event, "error", err)
		return
	}
	if !client.enqueue(data) {
		h.logger.Warn("send buffer full, closing connection", "conn_id", connID, "event", frame.Event)
		client.close()
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.clients, connID)
	h.mu.Unlock()
}
