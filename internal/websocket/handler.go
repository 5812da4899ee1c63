package websocket

import (
	"net/http"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/util"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler upgrades authenticated requests to notification sockets.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler creates a handler. originPatterns are host patterns accepted
// for cross-origin upgrades; "*" accepts any origin.
func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns}
}

// HandleWebSocket serves GET /ws. It runs behind the token middleware, so
// the username is already on the context.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	username, ok := util.GetUsernameFromContext(c)
	if !ok {
		return
	}

	opts := &websocket.AcceptOptions{CompressionMode: websocket.CompressionContextTakeover}
	for _, p := range h.originPatterns {
		if p == "*" {
			opts.InsecureSkipVerify = true
		}
	}
	if !opts.InsecureSkipVerify {
		opts.OriginPatterns = h.originPatterns
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", logger.WithUsername(username), zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, username)
	client.RemoteAddr = c.ClientIP()
	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Chronically!",
		Data: map[string]interface{}{
			"username":    username,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump()
}

// HandleOnlineStatus reports which of the requested users are connected.
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		Usernames []string `json:"usernames" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "usernames are required")
		return
	}

	statuses := make(map[string]bool, len(req.Usernames))
	for _, u := range req.Usernames {
		statuses[u] = h.hub.IsUserOnline(u)
	}
	c.JSON(http.StatusOK, gin.H{"status": "Success", "statuses": statuses})
}
