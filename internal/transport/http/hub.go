package http

import (
	"sync"

	"github.com/rs/zerolog"
)

// client is the hub's view of one websocket connection.
type client struct {
	id   string
	send chan outboundMessage[any]
}

// Hub fans events out to connected clients, either to the members of one
// room or to everyone. Delivery is fire-and-forget: a client whose buffer
// is full loses its oldest pending message.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
		log:     log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister drops c from every room. No broadcast can reach c afterwards.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for roomID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) join(c *client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*client]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
}

func (h *Hub) leave(c *client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[roomID]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// closeRoom removes every member from roomID.
func (h *Hub) closeRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

func (h *Hub) inRoom(c *client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][c]
	return ok
}

// RoomSize returns the number of connections currently in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastRoom sends event to every member of roomID.
func (h *Hub) BroadcastRoom(roomID, event string, payload any) {
	msg := outboundMessage[any]{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		h.deliver(c, msg)
	}
}

// BroadcastAll sends event to every connected client regardless of room.
func (h *Hub) BroadcastAll(event string, payload any) {
	msg := outboundMessage[any]{Type: event, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.deliver(c, msg)
	}
}

func (h *Hub) deliver(c *client, msg outboundMessage[any]) {
	select {
	case c.send <- msg:
		return
	default:
	}
	// Buffer full: drop the oldest pending message and retry once.
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warn().Str("conn", c.id).Str("event", msg.Type).Msg("dropping message for slow client")
	}
}
