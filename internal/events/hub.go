package events

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// Hub fans messages out to connected stream clients. Slow clients drop
// messages rather than block publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan Message]struct{}
	buffer  int
	logger  *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[chan Message]struct{}),
		buffer:  buffer,
		logger:  logger,
	}
}

// Join registers a client. The returned leave func must be called once the
// client goes away; it closes the channel.
func (h *Hub) Join() (<-chan Message, func()) {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish encodes v as JSON and sends it to every client.
func (h *Hub) Publish(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("dropping event for slow client", zap.String("event", event))
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
