// Package events routes named inbound and locally synthesized events to
// handlers. Dispatch is synchronous and happens on the caller's goroutine,
// which for the client is always its event loop.
package events

import (
	"github.com/chainreaction/client/internal/protocol"
)

// Name identifies an event.
type Name string

// Wire events carry the inbound frame that produced them.
const (
	Success      = Name(protocol.StatusSuccess)
	Error        = Name(protocol.StatusError)
	StoryReady   = Name(protocol.StatusStoryReady)
	GameStarted  = Name(protocol.StatusGameStarted)
	GameFinished = Name(protocol.StatusGameFinished)
	NewGameState = Name(protocol.StatusNewGameState)
)

// Local events never appear on the wire.
const (
	Connected        Name = "connected"
	Disconnect       Name = "disconnect"
	DisconnectGiveUp Name = "disconnect_give_up"
	BoardChanged     Name = "board_changed"
)

// Event is what handlers receive. Frame is zero for local events; Err is set
// for error frames and for disconnect_give_up.
type Event struct {
	Name  Name
	Frame protocol.Inbound
	Err   error
}

// Handler handles one event.
type Handler func(Event)

type observer struct {
	id int
	fn Handler
}

// Bus holds one primary handler per name plus any number of ordered
// observers. Registering a second primary handler for a name replaces the
// first. It is not safe for concurrent use.
type Bus struct {
	primary   map[Name]Handler
	observers map[Name][]observer
	nextID    int
}

func NewBus() *Bus {
	return &Bus{
		primary:   make(map[Name]Handler),
		observers: make(map[Name][]observer),
	}
}

// On sets the primary handler for name, replacing any previous one.
func (b *Bus) On(name Name, h Handler) {
	b.primary[name] = h
}

// Off removes the primary handler for name.
func (b *Bus) Off(name Name) {
	delete(b.primary, name)
}

// Subscribe adds an observer for name. Observers run in registration order
// after the primary handler. The returned func removes the observer.
func (b *Bus) Subscribe(name Name, h Handler) func() {
	b.nextID++
	id := b.nextID
	b.observers[name] = append(b.observers[name], observer{id: id, fn: h})
	return func() {
		list := b.observers[name]
		for i, o := range list {
			if o.id == id {
				b.observers[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit dispatches ev to the handlers registered for ev.Name. An event nobody
// listens to is dropped.
func (b *Bus) Emit(ev Event) {
	if h, ok := b.primary[ev.Name]; ok {
		h(ev)
	}
	// Copy so handlers may subscribe or unsubscribe while we iterate.
	list := append([]observer(nil), b.observers[ev.Name]...)
	for _, o := range list {
		o.fn(ev)
	}
}

// Has reports whether anything listens to name.
func (b *Bus) Has(name Name) bool {
	_, ok := b.primary[name]
	return ok || len(b.observers[name]) > 0
}
