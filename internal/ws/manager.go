// Package ws keeps the client's single realtime connection to the game
// server open: it dials, runs the socket pumps, decodes inbound frames onto
// the event bus and reconnects with capped exponential backoff.
package ws

import (
	"context"
	"errors"

	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/loop"
	"github.com/chainreaction/client/internal/protocol"
)

// Manager owns the socket lifecycle. Every method must be called from the
// loop; socket callbacks are posted back onto it.
type Manager struct {
	sched    loop.Scheduler
	dialer   Dialer
	endpoint string
	policy   Policy
	bus      *events.Bus
	log      *logger.Logger

	status   Status
	identity string
	attempts int
	gaveUp   bool
	lastErr  error

	// gen invalidates dials and pumps that belong to an older connection.
	gen        uint64
	conn       *conn
	timer      *loop.Timer
	cancelDial context.CancelFunc

	// dialAsync runs a blocking dial off the loop.
	dialAsync func(func())
}

// Options configures a Manager.
type Options struct {
	Endpoint string
	Policy   Policy
	Dialer   Dialer
	Logger   *logger.Logger
}

func NewManager(sched loop.Scheduler, bus *events.Bus, opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = NewGorillaDialer()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	return &Manager{
		sched:     sched,
		dialer:    opts.Dialer,
		endpoint:  opts.Endpoint,
		policy:    opts.Policy,
		bus:       bus,
		log:       opts.Logger.With(map[string]interface{}{"component": "ws"}),
		dialAsync: func(fn func()) { go fn() },
	}
}

func (m *Manager) Status() Status { return m.status }

// Attempts is the number of reconnects scheduled since the last open.
func (m *Manager) Attempts() int { return m.attempts }

// GaveUp reports whether the manager stopped retrying.
func (m *Manager) GaveUp() bool { return m.gaveUp }

func (m *Manager) Identity() string { return m.identity }

// Connect opens the socket for identity. It does nothing while a socket is
// open or being opened. Calling it after a give-up starts a fresh cycle.
func (m *Manager) Connect(identity string) error {
	if m.status != StatusDisconnected {
		return nil
	}
	if _, err := EndpointURL(m.endpoint, identity); err != nil {
		return err
	}
	m.identity = identity
	m.attempts = 0
	m.gaveUp = false
	m.stopTimer()
	m.dial()
	return nil
}

// Disconnect closes the socket, cancels any pending reconnect and stops the
// retry cycle.
func (m *Manager) Disconnect() {
	m.gen++
	m.stopTimer()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	wasUp := m.status != StatusDisconnected
	if m.conn != nil {
		m.conn.close()
		m.conn = nil
	}
	m.status = StatusDisconnected
	if wasUp {
		m.log.Info("[WS] disconnected by client")
		m.bus.Emit(events.Event{Name: events.Disconnect})
	}
}

// Send writes {action, payload} to the socket. It does not wait for a reply.
func (m *Manager) Send(action protocol.Action, payload interface{}) error {
	if m.status != StatusConnected || m.conn == nil {
		return &NotConnectedError{Action: string(action), Status: m.status}
	}
	data, err := protocol.Encode(action, payload)
	if err != nil {
		return err
	}
	if err := m.conn.enqueue(data); err != nil {
		return err
	}
	m.log.Debug("[WS] sent", map[string]interface{}{"action": action})
	return nil
}

func (m *Manager) dial() {
	target, err := EndpointURL(m.endpoint, m.identity)
	if err != nil {
		m.log.Error("[WS] bad endpoint", map[string]interface{}{"error": err.Error()})
		return
	}

	m.gen++
	gen := m.gen
	m.status = StatusConnecting
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel

	m.log.Info("[WS] connecting", map[string]interface{}{"url": m.endpoint, "attempt": m.attempts})
	m.dialAsync(func() {
		sock, err := m.dialer.Dial(ctx, target)
		m.sched.Post(func() {
			if gen != m.gen {
				if sock != nil {
					sock.Close()
				}
				return
			}
			m.cancelDial = nil
			cancel()
			if err != nil {
				m.handleClose(err)
				return
			}
			m.handleOpen(sock, gen)
		})
	})
}

func (m *Manager) handleOpen(sock Socket, gen uint64) {
	m.status = StatusConnected
	m.attempts = 0
	m.lastErr = nil
	m.stopTimer()

	c := newConn(sock)
	m.conn = c
	c.start(
		func(raw []byte) {
			m.sched.Post(func() {
				if gen == m.gen {
					m.handleMessage(raw)
				}
			})
		},
		func(err error) {
			m.sched.Post(func() {
				if gen == m.gen {
					m.log.Warn("[WS] socket "+closeReason(err), map[string]interface{}{"error": errString(err)})
					m.handleClose(err)
				}
			})
		},
	)

	m.log.Info("[WS] connected", map[string]interface{}{"identity": m.identity})
	m.bus.Emit(events.Event{Name: events.Connected})
}

// handleClose runs after a failed dial or a dropped socket.
func (m *Manager) handleClose(err error) {
	m.status = StatusDisconnected
	if m.conn != nil {
		m.conn.close()
		m.conn = nil
	}
	m.gen++
	m.lastErr = err

	m.bus.Emit(events.Event{Name: events.Disconnect, Err: err})
	// A handler may have reconnected or shut us down.
	if m.status != StatusDisconnected || m.timer.Active() || m.gaveUp {
		return
	}

	if m.policy.Exhausted(m.attempts) {
		m.gaveUp = true
		m.log.Error("[WS] giving up", map[string]interface{}{"attempts": m.attempts, "error": errString(err)})
		m.bus.Emit(events.Event{
			Name: events.DisconnectGiveUp,
			Err:  &ReconnectExhaustedError{Attempts: m.attempts, Last: err},
		})
		return
	}

	delay := m.policy.Delay(m.attempts)
	m.attempts++
	m.log.Info("[WS] reconnect scheduled", map[string]interface{}{"delay": delay.String(), "attempt": m.attempts})
	m.timer = m.sched.After(delay, func() {
		m.timer = nil
		m.dial()
	})
}

func (m *Manager) handleMessage(raw []byte) {
	in, err := protocol.Decode(raw)
	if err != nil {
		var malformed *protocol.MalformedFrameError
		if errors.As(err, &malformed) {
			m.log.Warn("[WS] dropped malformed frame", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	if !in.Status.Known() {
		m.log.Debug("[WS] dropped frame with unknown status", map[string]interface{}{"status": in.Status})
		return
	}

	ev := events.Event{Name: events.Name(in.Status), Frame: in}
	if in.Status == protocol.StatusError {
		ev.Err = in.AsServerError()
	}
	m.bus.Emit(ev)
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
