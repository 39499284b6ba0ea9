package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// fakeSocket is an in-memory Socket. Frames pushed on incoming are read by
// the read pump; text frames the write pump sends land on written.
type fakeSocket struct {
	incoming chan []byte
	written  chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		incoming: make(chan []byte, 16),
		written:  make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-f.incoming:
		return websocket.TextMessage, msg, nil
	case <-f.closed:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure}
	}
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("write on closed socket")
	default:
	}
	if messageType == websocket.TextMessage {
		f.written <- data
	}
	return nil
}

func (f *fakeSocket) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeSocket) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeSocket) SetReadLimit(int64)                {}
func (f *fakeSocket) SetPongHandler(func(string) error) {}

func (f *fakeSocket) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// fakeDialer hands out the queued results in order, then fails.
type fakeDialer struct {
	mu      sync.Mutex
	urls    []string
	results []dialResult
}

type dialResult struct {
	sock Socket
	err  error
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.results) == 0 {
		return nil, errors.New("connection refused")
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r.sock, r.err
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}
