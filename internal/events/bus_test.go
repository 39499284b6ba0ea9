package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnReplacesPreviousHandler(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.On(GameStarted, func(Event) { calls = append(calls, "first") })
	bus.On(GameStarted, func(Event) { calls = append(calls, "second") })
	bus.Emit(Event{Name: GameStarted})

	assert.Equal(t, []string{"second"}, calls)
}

func TestOffRemovesHandler(t *testing.T) {
	bus := NewBus()
	called := false
	bus.On(Connected, func(Event) { called = true })

	bus.Off(Connected)
	bus.Emit(Event{Name: Connected})

	assert.False(t, called)
	assert.False(t, bus.Has(Connected))
}

func TestEmitWithoutHandlerIsDropped(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() { bus.Emit(Event{Name: "nobody_listens"}) })
}

func TestObserversRunInOrderAfterPrimary(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe(Disconnect, func(Event) { calls = append(calls, "a") })
	bus.On(Disconnect, func(Event) { calls = append(calls, "primary") })
	cancel := bus.Subscribe(Disconnect, func(Event) { calls = append(calls, "b") })
	bus.Subscribe(Disconnect, func(Event) { calls = append(calls, "c") })

	bus.Emit(Event{Name: Disconnect})
	require.Equal(t, []string{"primary", "a", "b", "c"}, calls)

	calls = nil
	cancel()
	cancel()
	bus.Emit(Event{Name: Disconnect})
	assert.Equal(t, []string{"primary", "a", "c"}, calls)
}

func TestHandlersMayEmitAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var seen []Name
	var cancel func()

	cancel = bus.Subscribe(Connected, func(ev Event) {
		seen = append(seen, ev.Name)
		cancel()
		bus.Emit(Event{Name: BoardChanged})
	})
	bus.On(BoardChanged, func(ev Event) { seen = append(seen, ev.Name) })

	bus.Emit(Event{Name: Connected})
	bus.Emit(Event{Name: Connected})

	assert.Equal(t, []Name{Connected, BoardChanged}, seen)
}

func TestEventCarriesError(t *testing.T) {
	bus := NewBus()
	want := errors.New("gave up")
	var got error
	bus.On(DisconnectGiveUp, func(ev Event) { got = ev.Err })

	bus.Emit(Event{Name: DisconnectGiveUp, Err: want})

	assert.ErrorIs(t, got, want)
}
