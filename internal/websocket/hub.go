package websocket

import (
	"context"
	"sync"

	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

// Hub tracks one live client per session. A second connection for the
// same session replaces the first.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     logger.Logger
	mu         sync.RWMutex
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// Register adds client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if previous, ok := h.clients[client.sessionID]; ok && previous != client {
		previous.close()
		h.logger.Debug("Replaced websocket client", "session_id", client.sessionID)
	}
	h.clients[client.sessionID] = client
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.sessionID]; ok && current == client {
		delete(h.clients, client.sessionID)
	}
	client.close()
}

// SessionIDs lists the sessions with a live client.
func (h *Hub) SessionIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Disconnect closes the session's client, if any.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[sessionID]; ok {
		delete(h.clients, sessionID)
		client.close()
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)

	for _, client := range h.clients {
		client.close()
	}
	h.clients = make(map[string]*Client)
}
