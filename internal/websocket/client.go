package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Ping period; the read loop answers the pong.
	pingPeriod = 54 * time.Second

	// Clients only send pings, so inbound frames stay small.
	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

// Client is one websocket connection of a user.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	Username    string
	ConnectedAt time.Time
	RemoteAddr  string

	send chan []byte

	rateLimiter *RateLimiter

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// RateLimiter is a token bucket over inbound client messages.
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow consumes a token if one is available.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.tokens += now.Sub(r.lastTime).Seconds() * r.refill
	r.lastTime = now
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// NewClient wraps conn for username. conn may be nil in tests that only
// exercise the hub.
func NewClient(hub *Hub, conn *websocket.Conn, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:         hub,
		conn:        conn,
		Username:    username,
		ConnectedAt: time.Now(),
		send:        make(chan []byte, sendBufferSize),
		rateLimiter: NewRateLimiter(5, 10),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// enqueue queues data for the write pump, returning false when the client
// is closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Send marshals and queues a message for this client only.
func (c *Client) Send(message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if !c.enqueue(data) {
		return fmt.Errorf("client %s not accepting messages", c.Username)
	}
	return nil
}

// ReadPump reads client frames until the connection ends. Only ping
// messages are understood.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.ctx.Err() == nil {
				logger.Log.Debug("WebSocket read ended", logger.WithUsername(c.Username), zap.Error(err))
			}
			return
		}

		if !c.rateLimiter.Allow() {
			_ = c.Send(NewErrorMessage("rate_limited", "Too many messages, please slow down"))
			continue
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			_ = c.Send(NewErrorMessage("invalid_json", "Failed to parse message"))
			continue
		}

		switch message.Type {
		case MessageTypePing:
			c.handlePing(&message)
		default:
			_ = c.Send(NewErrorMessage("unknown_type", fmt.Sprintf("Unknown message type: %s", message.Type)))
		}
	}
}

func (c *Client) handlePing(message *Message) {
	var ping PingPayload
	_ = message.ParsePayload(&ping)

	serverTime := time.Now().UnixMilli()
	var latency int64
	if ping.ClientTime > 0 {
		latency = serverTime - ping.ClientTime
	}
	_ = c.Send(NewReply(message, MessageTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: serverTime,
		Latency:    latency,
	}))
}

// WritePump writes queued messages and keepalive pings until the client
// closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return

		case data := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Log.Debug("WebSocket write failed", logger.WithUsername(c.Username), zap.Error(err))
				c.Close()
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Log.Debug("WebSocket ping failed", logger.WithUsername(c.Username), zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

// Close cancels the pumps and closes the connection. Safe to call twice.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			_ = c.conn.CloseNow()
		}
	})
}
