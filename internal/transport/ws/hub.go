package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Hub is the connection registry: it maps each user to their live
// WebSocket clients and answers presence queries. A user may hold any
// number of simultaneous connections (one per device). The hub is the
// only structure mutated by multiple connections concurrently.
type Hub struct {
	mu sync.RWMutex
	// clients maps userID → set of live clients.
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds a client under its user's connection set. The first
// connection for a user flips presence to online and broadcasts the
// transition to everyone else; further devices join silently.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.user.ID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.user.ID] = set
	}
	wasOffline := len(set) == 0
	set[client] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	log.Printf("ws hub: user %s connected (%d device(s))", client.user.ID, total)

	if wasOffline {
		h.broadcastPresence(client.user.ID, "online")
	}
}

// Unregister removes exactly one client. Dropping the last connection
// for a user flips presence to offline and broadcasts the transition.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.user.ID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, client)
	wentOffline := len(set) == 0
	if wentOffline {
		delete(h.clients, client.user.ID)
	}
	h.mu.Unlock()

	close(client.send)
	close(client.done)
	log.Printf("ws hub: user %s disconnected", client.user.ID)

	if wentOffline {
		h.broadcastPresence(client.user.ID, "offline")
	}
}

// ConnectionsFor returns the user's live clients, possibly empty.
func (h *Hub) ConnectionsFor(userID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.clients[userID]
	conns := make([]*Client, 0, len(set))
	for client := range set {
		conns = append(conns, client)
	}
	return conns
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineUsers returns every identity with at least one live connection.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		users = append(users, id)
	}
	return users
}

// SendToUser delivers one event to each of the user's live connections.
// Delivery is fire-and-forget: a device with a full buffer is skipped
// so it never blocks the others.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
		}
	}
}

// broadcastPresence sends a status change to every connected user
// except the one whose presence changed.
func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypeStatusChange, StatusChangePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, set := range h.clients {
		if id == userID {
			continue
		}
		for client := range set {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}
