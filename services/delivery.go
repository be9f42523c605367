// services/delivery.go - WebSocket delivery channel
package services

import (
	"fmt"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Hub is the in-process delivery channel: one live websocket connection per
// account. Sending to an account with no connection is a delivery failure,
// left to the dispatch queue's retry policy.
type Hub struct {
	mu    sync.Mutex
	conns map[uint]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]*websocket.Conn)}
}

// Attach registers a connection for an account, replacing any previous one.
func (h *Hub) Attach(accountID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[accountID]; ok && old != conn {
		_ = old.Close()
	}
	h.conns[accountID] = conn
}

// Detach removes a connection if it is still the registered one.
func (h *Hub) Detach(accountID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[accountID] == conn {
		delete(h.conns, accountID)
	}
}

// Connected reports how many accounts currently have a live connection.
func (h *Hub) Connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Send implements Deliverer over the registered websocket connection.
func (h *Hub) Send(accountID uint, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[accountID]
	if !ok {
		return fmt.Errorf("%w: account %d not connected", ErrDeliveryFailed, accountID)
	}
	if err := conn.WriteJSON(map[string]string{"type": "notification", "message": message}); err != nil {
		delete(h.conns, accountID)
		_ = conn.Close()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
