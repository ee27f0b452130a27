// Package push subscribes to the daemon's stateUpdate websocket.
package push

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	timerdto "pomoguard/internal/modules/timer/dto"
)

const (
	eventStateUpdate = "stateUpdate"
	streamBuffer     = 16
	handshakeTimeout = 3 * time.Second
)

type event struct {
	Type  string               `json:"type"`
	State timerdto.StateOutput `json:"state"`
}

type Client struct {
	url    string
	dialer *websocket.Dialer
}

// New targets ws://<httpAddr>/v1/events. httpAddr may carry an http:// prefix.
func New(httpAddr string) *Client {
	addr := strings.TrimPrefix(strings.TrimPrefix(httpAddr, "http://"), "ws://")
	return &Client{
		url:    "ws://" + strings.TrimSuffix(addr, "/") + "/v1/events",
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

func (c *Client) URL() string { return c.url }

// Stream yields states until ctx ends or the connection drops. Updates are
// dropped when the reader falls behind; polling covers the gap.
func (c *Client) Stream(ctx context.Context) (<-chan timerdto.StateOutput, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	out := make(chan timerdto.StateOutput, streamBuffer)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	go func() {
		defer close(out)
		defer close(stop)
		defer conn.Close()
		for {
			var ev event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Type != eventStateUpdate {
				continue
			}
			select {
			case out <- ev.State:
			default:
			}
		}
	}()
	return out, nil
}
