package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/chronically/chronically/internal/util"
)

type envelope struct {
	Type    string          `json:"type"`
	ReplyTo string          `json:"reply_to"`
	Payload json.RawMessage `json:"payload"`
}

func startHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	return hub, func() {
		cancel()
		<-done
	}
}

func receive(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return envelope{}
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func register(t *testing.T, hub *Hub, username string) *Client {
	t.Helper()
	c := NewClient(hub, nil, username)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.IsUserOnline(username) }, time.Second, 5*time.Millisecond)
	return c
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 10)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "Request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow())

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestFlexibleTime(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte(`1710072000000`), &ft))
	assert.True(t, ft.Equal(time.UnixMilli(1710072000000)))

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-10T12:00:00Z"`), &ft))
	assert.True(t, ft.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))

	assert.Error(t, json.Unmarshal([]byte(`true`), &ft))
}

func TestMessageParsePayload(t *testing.T) {
	msg := NewMessage(MessageTypePing, map[string]interface{}{"client_time": float64(1234567890)})

	var ping PingPayload
	require.NoError(t, msg.ParsePayload(&ping))
	assert.Equal(t, int64(1234567890), ping.ClientTime)
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)
	defer stop()

	phone := register(t, hub, "alice")
	laptop := register(t, hub, "alice")
	bob := register(t, hub, "bob")

	hub.SendToUser("alice", NewMessage(MessageTypeFollowRequest, FollowRequestPayload{RequestID: "r1", From: "bob"}))

	for _, c := range []*Client{phone, laptop} {
		env := receive(t, c)
		assert.Equal(t, MessageTypeFollowRequest, env.Type)
		var p FollowRequestPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, FollowRequestPayload{RequestID: "r1", From: "bob"}, p)
	}
	assertNothingQueued(t, bob)
}

func TestSendToUsersSkipsOfflineUsers(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)
	defer stop()

	bob := register(t, hub, "bob")
	carol := register(t, hub, "carol")

	hub.SendToUsers([]string{"bob", "nobody", "carol"}, NewMessage(MessageTypeSharedContent, SharedContentPayload{
		Username: "alice", ContentType: "article", ContentID: "7",
	}))

	assert.Equal(t, MessageTypeSharedContent, receive(t, bob).Type)
	assert.Equal(t, MessageTypeSharedContent, receive(t, carol).Type)
}

func TestBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)
	defer stop()

	a := register(t, hub, "alice")
	b := register(t, hub, "bob")
	hub.Broadcast(NewMessage(MessageTypeSystem, SystemPayload{Event: "maintenance"}))

	assert.Equal(t, MessageTypeSystem, receive(t, a).Type)
	assert.Equal(t, MessageTypeSystem, receive(t, b).Type)
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)
	defer stop()

	slow := register(t, hub, "slow")
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, slow.enqueue([]byte(`{}`)))
	}
	fast := register(t, hub, "fast")

	hub.SendToUsers([]string{"slow", "fast"}, NewMessage(MessageTypeFollowAccepted, FollowAcceptedPayload{By: "x"}))

	assert.Equal(t, MessageTypeFollowAccepted, receive(t, fast).Type)
	assert.Len(t, slow.send, sendBufferSize)
}

func TestUnregisterAndShutdownCloseClients(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)

	a := register(t, hub, "alice")
	b := register(t, hub, "bob")

	hub.Unregister(a)
	require.Eventually(t, func() bool { return !hub.IsUserOnline("alice") }, time.Second, 5*time.Millisecond)
	assert.Error(t, a.ctx.Err())
	assert.Equal(t, 1, hub.ConnectionCount())

	stop()
	assert.Error(t, b.ctx.Err())
	assert.Equal(t, 0, hub.ConnectionCount())
	assert.Error(t, b.Send(NewMessage(MessageTypeSystem, nil)))

	// A stopped hub closes late registrations and never blocks senders.
	late := NewClient(hub, nil, "late")
	hub.Register(late)
	assert.Error(t, late.ctx.Err())
	hub.SendToUser("late", NewMessage(MessageTypeSystem, nil))
}

func TestHandleWebSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub, stop := startHub(t)
	defer stop()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		if u := c.Query("user"); u != "" {
			c.Set(util.ContextUsername, u)
		}
	}, NewHandler(hub, []string{"*"}).HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=alice"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var env envelope
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	assert.Equal(t, MessageTypeSystem, env.Type)

	require.Eventually(t, func() bool { return hub.IsUserOnline("alice") }, time.Second, 5*time.Millisecond)
	hub.SendToUser("alice", NewMessage(MessageTypeFollowRequest, FollowRequestPayload{RequestID: "r9", From: "bob"}))
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	assert.Equal(t, MessageTypeFollowRequest, env.Type)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{
		"type": "ping", "id": "p1", "payload": map[string]int64{"client_time": 1},
	}))
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	assert.Equal(t, MessageTypePong, env.Type)
	assert.Equal(t, "p1", env.ReplyTo)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return !hub.IsUserOnline("alice") }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(NewHub(), nil).HandleWebSocket)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, 401, w.Code)
}
