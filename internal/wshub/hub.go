package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"

	"arcade/internal/metrics"
)

// ClientMessage is a command received from a chat socket.
type ClientMessage struct {
	Type   string `json:"t"`
	Query  string `json:"q,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
	PeerID string `json:"peer_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

// ServerMessage is pushed to a chat socket.
type ServerMessage struct {
	Type  string `json:"t"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client is one open chat socket.
type Client struct {
	ID        string
	UserID    string
	CompanyID string
	Conn      *websocket.Conn
	Send      chan []byte
	// Nudge is signalled when a colleague posts, so the view can reload
	// before its next poll.
	Nudge chan struct{}
}

func NewClient(id, userID, companyID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        id,
		UserID:    userID,
		CompanyID: companyID,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		Nudge:     make(chan struct{}, 1),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks every open chat socket.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		metrics.ChatSockets.Inc()
	}
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
		metrics.ChatSockets.Dec()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo queues msg for one client. Non-blocking: drops if channel full.
func (h *Hub) SendTo(id string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// NudgeCompany signals every socket in companyID except senderID. Other
// users of the sender's account are nudged too.
func (h *Hub) NudgeCompany(companyID, senderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for id, c := range h.clients {
		if id == senderID || c.CompanyID != companyID {
			continue
		}
		select {
		case c.Nudge <- struct{}{}:
		default:
			// already pending
		}
		n++
	}
	return n
}
