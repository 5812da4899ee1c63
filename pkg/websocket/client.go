// Package websocket keeps a live connection to the server's /ws endpoint
// and dispatches pushed events to listeners.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event types pushed by the server
const (
	EventSystem         = "system"
	EventPing           = "ping"
	EventPong           = "pong"
	EventError          = "error"
	EventFollowRequest  = "follow_request"
	EventFollowAccepted = "follow_accepted"
	EventSharedContent  = "shared_content"
)

// Event is one message from the server. Payload stays raw so each listener
// decodes the shape it expects.
type Event struct {
	Type      string              `json:"type"`
	Payload   jsoniter.RawMessage `json:"payload,omitempty"`
	ID        string              `json:"id,omitempty"`
	ReplyTo   string              `json:"reply_to,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Decode unmarshals the payload into v
func (e Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %q has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

// Config holds WebSocket client configuration
type Config struct {
	URL                string
	ConnectTimeout     time.Duration
	HeartbeatInterval  time.Duration
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	// MaxReconnectAttempts is the number of consecutive failures tolerated
	// before Run gives up; negative means unlimited.
	MaxReconnectAttempts int
}

// DefaultConfig derives the socket URL from the API base URL
func DefaultConfig(baseURL string) (Config, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return Config{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return Config{
		URL:                  u.String(),
		ConnectTimeout:       15 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   2 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: -1,
	}, nil
}

// ConnectionState represents the state of the WebSocket connection
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	MessagesSent     int64
	ReconnectCount   int
	LastError        string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

// Client manages one authenticated connection and reconnects it until its
// context ends.
type Client struct {
	config Config
	token  string
	state  atomic.Int32

	mu   sync.RWMutex
	conn *websocket.Conn

	listenersMu sync.RWMutex
	listeners   map[string][]func(Event)

	statsLock sync.RWMutex
	stats     ConnectionStats
}

// NewClient creates a new WebSocket client authenticated with token
func NewClient(config Config, token string) *Client {
	return &Client{
		config:    config,
		token:     token,
		listeners: make(map[string][]func(Event)),
	}
}

// On subscribes to an event type. An empty type receives every event.
// Listeners run on the read loop, in subscription order.
func (c *Client) On(eventType string, fn func(Event)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners[eventType] = append(c.listeners[eventType], fn)
}

// Run connects and dispatches events until ctx is cancelled. It returns nil
// on cancellation, or the last error once MaxReconnectAttempts consecutive
// attempts have failed.
func (c *Client) Run(ctx context.Context) error {
	delay := c.config.ReconnectBaseDelay
	attempts := 0
	for {
		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err == nil {
			attempts = 0
			delay = c.config.ReconnectBaseDelay
			err = c.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil
		}
		c.recordError(err)
		logger.Debug("WebSocket connection lost", "error", err)

		if c.config.MaxReconnectAttempts >= 0 && attempts >= c.config.MaxReconnectAttempts {
			c.setState(StateError)
			return fmt.Errorf("websocket: giving up after %d attempts: %w", attempts+1, err)
		}
		attempts++
		c.setState(StateReconnecting)

		wait := delay + jitter(delay)
		logger.Debug("Reconnecting WebSocket", "attempt", attempts, "wait_ms", wait.Milliseconds())
		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return nil
		case <-time.After(wait):
		}
		c.statsLock.Lock()
		c.stats.ReconnectCount++
		c.statsLock.Unlock()
		if delay *= 2; delay > c.config.ReconnectMaxDelay {
			delay = c.config.ReconnectMaxDelay
		}
	}
}

// Send writes an event to the server
func (c *Client) Send(ctx context.Context, eventType string, payload interface{}) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.New("not connected")
	}

	ev := Event{Type: eventType, Timestamp: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		ev.Payload = raw
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return err
	}
	c.statsLock.Lock()
	c.stats.MessagesSent++
	c.statsLock.Unlock()
	return nil
}

// IsConnected returns true if the connection is established
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// GetStats returns connection statistics
func (c *Client) GetStats() ConnectionStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.stats
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("User-Agent", client.UserAgent)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.Dial(dialCtx, c.config.URL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("websocket rejected the token: %w", err)
		}
		return nil, err
	}
	return conn, nil
}

// serve owns conn until the read loop fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateConnected)
	c.statsLock.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsLock.Unlock()
	logger.Debug("WebSocket connected", "url", c.config.URL)

	hbCtx, stop := context.WithCancel(ctx)
	defer func() {
		stop()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		c.statsLock.Lock()
		c.stats.DisconnectedAt = time.Now()
		c.statsLock.Unlock()
	}()
	if c.config.HeartbeatInterval > 0 {
		go c.heartbeatLoop(hbCtx)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn("Dropping malformed WebSocket message", "error", err)
			continue
		}
		c.statsLock.Lock()
		c.stats.MessagesReceived++
		c.statsLock.Unlock()
		c.emit(ev)
	}
}

func (c *Client) emit(ev Event) {
	c.listenersMu.RLock()
	callbacks := append(append([]func(Event){}, c.listeners[ev.Type]...), c.listeners[""]...)
	c.listenersMu.RUnlock()
	for _, fn := range callbacks {
		fn(ev)
	}
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping := map[string]int64{"client_time": time.Now().UnixMilli()}
			if err := c.Send(ctx, EventPing, ping); err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.statsLock.Lock()
	c.stats.LastError = err.Error()
	c.statsLock.Unlock()
}

// jitter spreads reconnects by up to half the delay.
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d / 2)))
}
