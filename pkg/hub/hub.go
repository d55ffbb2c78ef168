package hub

import (
	"context"
	"sync"

	"github.com/rashidlabs/go-kiosk/internal/log"
	"github.com/rashidlabs/go-kiosk/pkg/protocol"
)

// Hub maintains the set of active clients, broadcasts messages to them, and
// dispatches inbound client events to the application callbacks.
type Hub struct {
	// Name for logging
	name string

	// Registered clients keyed by client id
	clients map[string]*Client

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex guarding the client map
	mu sync.RWMutex

	// OnConnect is invoked after a client registers.
	OnConnect func(clientID string)

	// OnDisconnect is invoked after a client unregisters.
	OnDisconnect func(clientID string)

	// OnEvent receives parsed JSON envelopes sent by a client.
	OnEvent func(clientID string, env *protocol.Envelope)

	// OnBinary receives binary payloads (camera frames) sent by a client.
	OnBinary func(clientID string, data []byte)
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[string]*Client),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
// This should be called in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("client connected", "hub", h.name, "client", client.ID, "total", count)
			if h.OnConnect != nil {
				h.OnConnect(client.ID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.ID]
			if ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("client disconnected", "hub", h.name, "client", client.ID, "remaining", count)
			if ok && h.OnDisconnect != nil {
				h.OnDisconnect(client.ID)
			}

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
					// Message queued successfully
				default:
					// Client's buffer is full - they're too slow.
					// Close and remove them so frame production never stalls.
					close(client.send)
					delete(h.clients, id)
					log.Warn("dropped slow client", "hub", h.name, "client", id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message rather than block the caller
		log.Warn("broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastEvent encodes and broadcasts an event envelope to all clients.
func (h *Hub) BroadcastEvent(event protocol.Event, data any) error {
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	raw, err := env.Bytes()
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(raw))
	return nil
}

// Send delivers a message to a single client. Returns false if the client is
// unknown or its buffer is full (the message is dropped, never queued twice).
// The lock is held across the send: the client's channel is only closed under
// the write lock, so a concurrent disconnect can never close it mid-send.
func (h *Hub) Send(clientID string, msg Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	if !ok {
		return false
	}

	select {
	case client.send <- msg:
		return true
	default:
		log.Warn("send buffer full, dropping message", "hub", h.name, "client", clientID)
		return false
	}
}

// SendEvent encodes an event envelope and delivers it to a single client.
func (h *Hub) SendEvent(clientID string, event protocol.Event, data any) error {
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	raw, err := env.Bytes()
	if err != nil {
		return err
	}
	h.Send(clientID, NewJSONMessage(raw))
	return nil
}

// ClientIDs returns the ids of all currently connected clients.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
