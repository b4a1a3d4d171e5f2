package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ChatRoom is one room per contract (family + caregiver).
type ChatRoom struct {
	ContractID  uint
	FamilyID    uint
	CaregiverID uint
	clients     map[*Client]struct{}
	mu          sync.RWMutex
}

func NewChatRoom(contractID, familyID, caregiverID uint) *ChatRoom {
	return &ChatRoom{
		ContractID:  contractID,
		FamilyID:    familyID,
		CaregiverID: caregiverID,
		clients:     make(map[*Client]struct{}),
	}
}

func (r *ChatRoom) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *ChatRoom) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *ChatRoom) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ChatRoom) Broadcast(from *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// ChatHub holds all chat rooms by contract ID.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[uint]*ChatRoom
}

func NewChatHub() *ChatHub {
	return &ChatHub{rooms: make(map[uint]*ChatRoom)}
}

func (h *ChatHub) GetOrCreateRoom(contractID, familyID, caregiverID uint) *ChatRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[contractID]; ok {
		return r
	}
	r := NewChatRoom(contractID, familyID, caregiverID)
	h.rooms[contractID] = r
	return r
}

func (h *ChatHub) GetRoom(contractID uint) *ChatRoom {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[contractID]
}

func (h *ChatHub) RemoveRoom(contractID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, contractID)
}
