package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/ws"
)

type pipeSocket struct {
	written chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newPipeSocket() *pipeSocket {
	return &pipeSocket{written: make(chan []byte, 64), closed: make(chan struct{})}
}

func (p *pipeSocket) ReadMessage() (int, []byte, error) {
	<-p.closed
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (p *pipeSocket) WriteMessage(messageType int, data []byte) error {
	select {
	case <-p.closed:
		return errors.New("closed")
	default:
	}
	if messageType == websocket.TextMessage {
		p.written <- data
	}
	return nil
}

func (p *pipeSocket) SetReadDeadline(time.Time) error   { return nil }
func (p *pipeSocket) SetWriteDeadline(time.Time) error  { return nil }
func (p *pipeSocket) SetReadLimit(int64)                {}
func (p *pipeSocket) SetPongHandler(func(string) error) {}

func (p *pipeSocket) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

type pipeDialer struct {
	sock *pipeSocket
}

func (d *pipeDialer) Dial(context.Context, string) (ws.Socket, error) {
	return d.sock, nil
}

type sentFrame struct {
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

// nextFrame waits for the next frame the client writes.
func nextFrame(t *testing.T, sock *pipeSocket) sentFrame {
	t.Helper()
	select {
	case raw := <-sock.written:
		var f sentFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame written")
		return sentFrame{}
	}
}

func noFrame(t *testing.T, sock *pipeSocket) {
	t.Helper()
	select {
	case raw := <-sock.written:
		t.Fatalf("unexpected frame %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}
