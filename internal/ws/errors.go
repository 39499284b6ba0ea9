package ws

import (
	"errors"
	"fmt"
)

// NotConnectedError is returned by Send while the socket is not open.
// Callers should show a reconnecting state rather than fail.
type NotConnectedError struct {
	Action string
	Status Status
}

func (e *NotConnectedError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("not connected (%s)", e.Status)
	}
	return fmt.Sprintf("cannot send %s: not connected (%s)", e.Action, e.Status)
}

// Is makes errors.Is(err, ErrNotConnected) match any *NotConnectedError.
func (e *NotConnectedError) Is(target error) bool {
	_, ok := target.(*NotConnectedError)
	return ok
}

// ErrNotConnected matches every *NotConnectedError.
var ErrNotConnected = &NotConnectedError{}

// ReconnectExhaustedError is carried by the disconnect_give_up event. No
// further automatic reconnect happens until Connect is called again.
type ReconnectExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ReconnectExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("gave up reconnecting after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("gave up reconnecting after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ReconnectExhaustedError) Unwrap() error { return e.Last }

// ErrSendBufferFull is returned when the write pump cannot keep up.
var ErrSendBufferFull = errors.New("send buffer full")
