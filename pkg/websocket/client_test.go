package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func testConfig(serverURL string) Config {
	cfg, err := DefaultConfig(serverURL)
	if err != nil {
		panic(err)
	}
	cfg.ConnectTimeout = 2 * time.Second
	cfg.HeartbeatInterval = 0
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.ReconnectMaxDelay = 20 * time.Millisecond
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8787", "ws://localhost:8787/ws"},
		{"https://api.chronically.test/", "wss://api.chronically.test/ws"},
		{"https://example.test/prod", "wss://example.test/prod/ws"},
	}
	for _, tt := range tests {
		cfg, err := DefaultConfig(tt.base)
		if err != nil {
			t.Fatalf("DefaultConfig(%q): %v", tt.base, err)
		}
		if cfg.URL != tt.want {
			t.Errorf("DefaultConfig(%q).URL = %q, want %q", tt.base, cfg.URL, tt.want)
		}
	}

	if _, err := DefaultConfig("ftp://example.test"); err == nil {
		t.Error("Expected an error for an ftp base URL")
	}
}

func TestClientDispatchesEvents(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		msg := `{"type":"follow_request","payload":{"request_id":"r1","from":"alice"},"timestamp":"2026-01-02T03:04:05Z"}`
		if err := conn.Write(r.Context(), websocket.MessageText, []byte(msg)); err != nil {
			return
		}
		conn.Read(r.Context())
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewClient(testConfig(srv.URL), "tok")
	got := make(chan Event, 2)
	var all atomic.Int32
	c.On(EventFollowRequest, func(ev Event) { got <- ev })
	c.On("", func(Event) { all.Add(1) })

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case ev := <-got:
		var payload struct {
			RequestID string `json:"request_id"`
			From      string `json:"from"`
		}
		if err := ev.Decode(&payload); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if payload.From != "alice" || payload.RequestID != "r1" {
			t.Errorf("Unexpected payload %+v", payload)
		}
		if ev.Timestamp.Year() != 2026 {
			t.Errorf("Unexpected timestamp %v", ev.Timestamp)
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for event")
	}

	if auth, _ := gotAuth.Load().(string); auth != "Bearer tok" {
		t.Errorf("Expected bearer header, got %q", auth)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run should return nil on cancel, got %v", err)
	}
	if all.Load() != 1 {
		t.Errorf("Expected the catch-all listener to run once, got %d", all.Load())
	}
	if c.GetStats().MessagesReceived != 1 {
		t.Errorf("Expected 1 received message, got %d", c.GetStats().MessagesReceived)
	}
}

func TestClientReconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		if conns.Add(1) == 1 {
			conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		defer conn.CloseNow()
		conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"shared_content","payload":{}}`))
		conn.Read(r.Context())
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := testConfig(srv.URL)
	cfg.MaxReconnectAttempts = 3
	c := NewClient(cfg, "tok")
	got := make(chan struct{}, 1)
	c.On(EventSharedContent, func(Event) { got <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-got:
	case <-ctx.Done():
		t.Fatal("Timed out waiting for the second connection")
	}
	if conns.Load() < 2 {
		t.Errorf("Expected a reconnect, got %d connections", conns.Load())
	}
	if c.GetStats().ReconnectCount < 1 {
		t.Error("Expected ReconnectCount to be recorded")
	}
	cancel()
	<-done
}

func TestClientGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxReconnectAttempts = 1
	c := NewClient(cfg, "bad")

	err := c.Run(context.Background())
	if err == nil {
		t.Fatal("Expected Run to fail")
	}
	if c.State() != StateError {
		t.Errorf("Expected StateError, got %v", c.State())
	}
	if c.GetStats().LastError == "" {
		t.Error("Expected LastError to be recorded")
	}
}

func TestSendRequiresConnection(t *testing.T) {
	c := NewClient(Config{}, "")
	if err := c.Send(context.Background(), EventPing, nil); err == nil {
		t.Error("Expected an error when not connected")
	}
}
