package socket

import (
	"context"
	"strings"

	"github.com/coder/websocket"
)

// Conn is the minimal surface of a live connection a Session needs.
// Production connections are websockets; tests substitute fakes.
type Conn interface {
	// Read blocks until the next frame arrives or the connection fails.
	Read(ctx context.Context) ([]byte, error)
	// Close tears the connection down. Safe to call on a failed connection.
	Close() error
}

// Dialer opens a connection to a room stream URL.
type Dialer func(ctx context.Context, url string) (Conn, error)

// Dial is the production Dialer, backed by coder/websocket.
func Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "leaving")
}

// StreamURL derives a room's websocket URL from the HTTP base URL,
// e.g. http://host:8080 + "general" -> ws://host:8080/ws/general.
func StreamURL(baseURL, roomID string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		baseURL = "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		baseURL = "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return strings.TrimSuffix(baseURL, "/") + "/ws/" + roomID
}
