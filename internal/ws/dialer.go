package ws

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Socket is the part of *websocket.Conn the pumps use.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer opens sockets.
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// GorillaDialer dials with gorilla/websocket.
type GorillaDialer struct {
	Dialer *websocket.Dialer
}

func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{Dialer: &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}}
}

func (d *GorillaDialer) Dial(ctx context.Context, rawURL string) (Socket, error) {
	conn, resp, err := d.Dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (http %d)", rawURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return conn, nil
}

// EndpointURL appends the player identity to the realtime endpoint.
func EndpointURL(endpoint, identity string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("endpoint %q must use ws or wss", endpoint)
	}
	q := u.Query()
	q.Set("player_id", identity)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
