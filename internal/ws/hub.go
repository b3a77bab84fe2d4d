package ws

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub tracks the live clients of every connected user on this instance.
// A user may hold several clients (tabs, devices) at once.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.userID] = set
	}
	set[client] = struct{}{}
	userClients := len(set)
	h.mu.Unlock()

	h.logger.Debug("ws client registered",
		zap.Stringer("user_id", client.userID),
		zap.Int("user_clients", userClients),
	)
}

// Unregister removes the client and closes its send channel. Calling it more
// than once for the same client is a no-op.
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	removed := h.removeLocked(client)
	h.mu.Unlock()

	if removed {
		h.logger.Debug("ws client unregistered", zap.Stringer("user_id", client.userID))
	}
}

func (h *Hub) removeLocked(client *Client) bool {
	set, ok := h.clients[client.userID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	return true
}

// Close unregisters every client and closes its connection, which ends the
// client's pumps. The hub stays usable afterwards.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	var closed []*Client
	for _, set := range h.clients {
		for c := range set {
			closed = append(closed, c)
		}
	}
	for _, c := range closed {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	for _, c := range closed {
		c.closeConn()
	}
	if len(closed) > 0 {
		h.logger.Info("ws clients closed", zap.Int("clients", len(closed)))
	}
}

// SendToUser queues message on every client of userID and returns how many
// accepted it. Clients whose buffer is full are dropped.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) int {
	if h == nil {
		return 0
	}

	var delivered int
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- message:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("ws client too slow, dropping", zap.Stringer("user_id", userID))
		h.Unregister(c)
		c.closeConn()
	}
	return delivered
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	var n int
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) UserClientCount(userID uuid.UUID) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
