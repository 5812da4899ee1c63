// Package websocket pushes live notifications to connected users over
// github.com/coder/websocket.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"go.uber.org/zap"
)

const queueSize = 256

// Delivery outcomes reported to metrics.
const (
	outcomeSent    = "sent"
	outcomeDropped = "dropped"
	outcomeOffline = "offline"
)

// Notifier sends events to users by username. The hub implements it; the
// HTTP handlers depend only on this.
type Notifier interface {
	SendToUser(username string, message *Message)
	SendToUsers(usernames []string, message *Message)
}

var _ Notifier = (*Hub)(nil)

type delivery struct {
	usernames []string
	all       bool
	message   *Message
}

// Hub maintains the set of active clients keyed by username. Only Run
// mutates the registry; callers talk to it through buffered queues.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	outbound   chan delivery

	stopped chan struct{}
	running atomic.Bool
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, queueSize),
		unregister: make(chan *Client, queueSize),
		outbound:   make(chan delivery, queueSize),
		stopped:    make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	defer close(h.stopped)

	logger.Log.Info("WebSocket hub starting")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.Username] == nil {
		h.clients[client.Username] = make(map[*Client]struct{})
	}
	h.clients[client.Username][client] = struct{}{}
	h.mu.Unlock()

	metrics.Get().WebSocketConnections.Inc()
	logger.Log.Debug("WebSocket client connected", logger.WithUsername(client.Username))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.clients[client.Username]
	if ok {
		if _, ok = clients[client]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.clients, client.Username)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		client.Close()
		metrics.Get().WebSocketConnections.Dec()
		logger.Log.Debug("WebSocket client disconnected", logger.WithUsername(client.Username))
	}
}

func (h *Hub) deliver(d delivery) {
	data, err := json.Marshal(d.message)
	if err != nil {
		logger.Log.Error("Failed to marshal notification", zap.String("type", d.message.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if d.all {
		for _, clients := range h.clients {
			h.fanOut(clients, d.message.Type, data)
		}
		return
	}
	for _, username := range d.usernames {
		clients, ok := h.clients[username]
		if !ok {
			metrics.RecordNotification(d.message.Type, outcomeOffline)
			continue
		}
		h.fanOut(clients, d.message.Type, data)
	}
}

func (h *Hub) fanOut(clients map[*Client]struct{}, event string, data []byte) {
	for client := range clients {
		if client.enqueue(data) {
			metrics.RecordNotification(event, outcomeSent)
		} else {
			metrics.RecordNotification(event, outcomeDropped)
		}
	}
}

// enqueue hands d to Run without blocking; a full queue drops it.
func (h *Hub) enqueue(d delivery) {
	select {
	case <-h.stopped:
		return
	default:
	}
	select {
	case h.outbound <- d:
	case <-h.stopped:
	default:
		metrics.RecordNotification(d.message.Type, outcomeDropped)
		logger.Log.Warn("Notification queue full, dropping message", zap.String("type", d.message.Type))
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(message *Message) {
	h.enqueue(delivery{all: true, message: message})
}

// SendToUser sends a message to every connection of username.
func (h *Hub) SendToUser(username string, message *Message) {
	h.enqueue(delivery{usernames: []string{username}, message: message})
}

// SendToUsers sends one message to each listed user.
func (h *Hub) SendToUsers(usernames []string, message *Message) {
	if len(usernames) == 0 {
		return
	}
	h.enqueue(delivery{usernames: usernames, message: message})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case <-h.stopped:
		client.Close()
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.stopped:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// IsUserOnline checks if a user has any active connections
func (h *Hub) IsUserOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[username]) > 0
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
			metrics.Get().WebSocketConnections.Dec()
			closed++
		}
	}
	h.clients = make(map[string]map[*Client]struct{})

	logger.Log.Info("WebSocket hub stopped", zap.Int("closed_connections", closed))
}
