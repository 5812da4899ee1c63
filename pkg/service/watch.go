package service

import (
	"context"

	"github.com/chronically/chronically/pkg/config"
	"github.com/chronically/chronically/pkg/output"
	"github.com/chronically/chronically/pkg/websocket"
)

// WatchService prints live notifications
type WatchService struct{}

// NewWatchService creates a new watch service
func NewWatchService() *WatchService {
	return &WatchService{}
}

// Watch streams follow requests, acceptances and shares until ctx ends
func (ws *WatchService) Watch(ctx context.Context) error {
	creds, err := RequireLogin()
	if err != nil {
		return err
	}
	cfg, err := websocket.DefaultConfig(config.GetString("api.base_url"))
	if err != nil {
		return err
	}

	c := websocket.NewClient(cfg, creds.Token)
	registerPrinters(c)

	output.PrintInfo("👀 Watching for activity (Ctrl+C to stop)...")
	return c.Run(ctx)
}

// registerPrinters wires one printer per pushed event type.
func registerPrinters(c *websocket.Client) {
	c.On(websocket.EventFollowRequest, func(ev websocket.Event) {
		var p struct {
			From string `json:"from"`
		}
		if ev.Decode(&p) == nil {
			output.PrintInfo("🤝 %s wants to be friends. Run 'chronically requests accept %s'", p.From, p.From)
		}
	})
	c.On(websocket.EventFollowAccepted, func(ev websocket.Event) {
		var p struct {
			By string `json:"by"`
		}
		if ev.Decode(&p) == nil {
			output.PrintSuccess("✓ %s accepted your request", p.By)
		}
	})
	c.On(websocket.EventSharedContent, func(ev websocket.Event) {
		var p struct {
			Username    string `json:"username"`
			ContentType string `json:"content_type"`
			ContentID   string `json:"content_id"`
		}
		if ev.Decode(&p) == nil {
			output.PrintInfo("🔁 %s shared %s %s", p.Username, p.ContentType, p.ContentID)
		}
	})
	c.On(websocket.EventError, func(ev websocket.Event) {
		var p struct {
			Message string `json:"message"`
		}
		if ev.Decode(&p) == nil {
			output.PrintWarning("%s", p.Message)
		}
	})
}
