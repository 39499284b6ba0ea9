package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 1 << 16             // Boards arrive as whole serialized grids.
	sendBuffer     = 256
)

// conn runs the read and write pumps for one open socket. The pumps never
// touch client state; they hand frames and the close reason to callbacks
// that post onto the loop.
type conn struct {
	sock Socket
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(sock Socket) *conn {
	return &conn{
		sock: sock,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *conn) start(onMessage func([]byte), onClose func(error)) {
	go c.writePump()
	go c.readPump(onMessage, onClose)
}

// enqueue hands a frame to the write pump without blocking.
func (c *conn) enqueue(data []byte) error {
	select {
	case <-c.done:
		return &NotConnectedError{Status: StatusDisconnected}
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// close asks the write pump to send a close frame and shut the socket.
func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

// readPump continuously reads messages from the socket until it fails.
func (c *conn) readPump(onMessage func([]byte), onClose func(error)) {
	var err error
	defer func() {
		c.close()
		c.sock.Close()
		onClose(err)
	}()

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var message []byte
		_, message, err = c.sock.ReadMessage()
		if err != nil {
			return
		}
		onMessage(message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			c.sock.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// closeReason classifies a read error for logging.
func closeReason(err error) string {
	if err == nil {
		return "closed"
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
		return "unexpected close"
	}
	return "closed"
}
