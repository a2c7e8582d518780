package sse

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event one server-sent event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client a connected stream
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub fans committed domain events out to connected clients. It satisfies
// events.Publisher so the bus can forward to it next to the broker.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("stream client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("stream client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Broadcast never blocks; a client with a full buffer misses the event.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("stream client buffer full, skipping event",
				zap.String("client_id", client.ID),
				zap.String("event", event.EventType),
			)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Publish(_ context.Context, routingKey string, body []byte) error {
	h.Broadcast(Event{EventType: routingKey, Data: string(body)})
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Events)
		delete(h.clients, id)
	}
	return nil
}
