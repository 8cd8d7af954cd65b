package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	Topic() string
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by subscription topic
// It is safe for concurrent use
type Hub struct {
	// topics maps topic name to a map of client ID to client
	topics map[string]map[string]ClientInterface
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its topic
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topic := client.Topic()
	clientID := client.ID()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]ClientInterface)
	}

	h.topics[topic][clientID] = client

	log.Debug().
		Str("topic", topic).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topic := client.Topic()
	clientID := client.ID()

	if clients, ok := h.topics[topic]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty topic maps
			if len(clients) == 0 {
				delete(h.topics, topic)
			}

			log.Debug().
				Str("topic", topic).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients subscribed to a topic
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.topics[topic]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	// Send to each client asynchronously
	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("topic", topic).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("topic", topic).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients subscribed to a topic
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.topics[topic]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all topics
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.topics {
		total += len(clients)
	}
	return total
}
