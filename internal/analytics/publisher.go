package analytics

import (
	"sync"
	"sync/atomic"

	"github.com/chainreaction/client/internal/logger"
)

const publishBuffer = 128

// EventSender delivers one event. *Producer implements it.
type EventSender interface {
	SendEvent(ClientEvent) error
}

// Publisher records telemetry without blocking the caller. A single worker
// drains the buffer into the sender; events are dropped when it is full.
type Publisher struct {
	sender    EventSender
	sessionID string
	playerID  string
	log       *logger.Logger

	events  chan ClientEvent
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewPublisher(sender EventSender, sessionID, playerID string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Default()
	}
	p := &Publisher{
		sender:    sender,
		sessionID: sessionID,
		playerID:  playerID,
		log:       log,
		events:    make(chan ClientEvent, publishBuffer),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Record queues an event. It never blocks.
func (p *Publisher) Record(kind, gameID string, data map[string]interface{}) {
	ev := ClientEvent{
		Type:      kind,
		SessionID: p.sessionID,
		PlayerID:  p.playerID,
		GameID:    gameID,
		Data:      data,
	}
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
	}
}

// Dropped counts events lost to a full buffer.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Failed counts events the sender rejected.
func (p *Publisher) Failed() int64 { return p.failed.Load() }

// Close flushes queued events and stops the worker. Record must not be
// called afterwards.
func (p *Publisher) Close() error {
	p.once.Do(func() { close(p.events) })
	p.wg.Wait()
	return nil
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for ev := range p.events {
		if err := p.sender.SendEvent(ev); err != nil {
			p.failed.Add(1)
			p.log.Warn("[ANALYTICS] event not delivered", map[string]interface{}{
				"type": ev.Type, "error": err.Error(),
			})
		}
	}
}
