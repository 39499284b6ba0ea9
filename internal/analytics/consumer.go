package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/chainreaction/client/internal/logger"
)

// FailedEvent is a message that could not be stored, kept for inspection.
type FailedEvent struct {
	Topic     string
	Partition int32
	Offset    int64
	Message   string
	Error     string
}

// EventStore persists consumed events.
type EventStore interface {
	SaveEvent(ctx context.Context, event ClientEvent) error
	SaveFailed(ctx context.Context, failed FailedEvent) error
}

// Consumer handles consuming and storing client events
type Consumer struct {
	consumer sarama.ConsumerGroup
	store    EventStore
	log      *logger.Logger
}

// ConsumerGroupHandler implements the sarama.ConsumerGroupHandler interface
type ConsumerGroupHandler struct {
	ready chan bool
	store EventStore
	log   *logger.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, groupID string, store EventStore, log *logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Consumer{consumer: group, store: store, log: log}, nil
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, topics []string) error {
	for {
		handler := NewHandler(c.store, c.log)
		if err := c.consumer.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close closes the consumer group
func (c *Consumer) Close() error {
	return c.consumer.Close()
}

func NewHandler(store EventStore, log *logger.Logger) *ConsumerGroupHandler {
	return &ConsumerGroupHandler{ready: make(chan bool), store: store, log: log}
}

// Setup is run before consuming begins
func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is run when consuming ends
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim stores messages in partition order. Messages that fail are
// dead-lettered and still marked, so one bad record never stalls a partition.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok || msg == nil {
				return nil
			}
			h.handleMessage(session.Context(), msg)
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *ConsumerGroupHandler) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	err := h.storeMessage(ctx, msg.Value)
	if err == nil {
		return
	}

	h.log.Warn("[JOURNAL] error processing message", map[string]interface{}{
		"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset, "error": err.Error(),
	})
	dlErr := h.store.SaveFailed(ctx, FailedEvent{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Message:   string(msg.Value),
		Error:     err.Error(),
	})
	if dlErr != nil {
		h.log.Error("[JOURNAL] error storing failed message", map[string]interface{}{"error": dlErr.Error()})
	}
}

func (h *ConsumerGroupHandler) storeMessage(ctx context.Context, value []byte) error {
	var event ClientEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("error unmarshaling event: %w", err)
	}
	if event.Type == "" || event.SessionID == "" {
		return fmt.Errorf("event missing type or session")
	}
	if err := h.store.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("error storing event: %w", err)
	}
	return nil
}
