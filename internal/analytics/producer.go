// Package analytics ships client telemetry to Kafka and consumes it back on
// the journal side.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// ClientEvent is one telemetry record produced by a client session.
type ClientEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"sessionId"`
	PlayerID  string                 `json:"playerId"`
	GameID    string                 `json:"gameId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventType constants
const (
	EventConnected     = "connected"
	EventDisconnect    = "disconnect"
	EventGiveUp        = "disconnect_give_up"
	EventGameStarted   = "game_started"
	EventMoveConfirmed = "move_confirmed"
	EventGameFinished  = "game_finished"
	EventServerError   = "server_error"
)

// Producer handles sending events to Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerFrom(producer, topic), nil
}

// NewProducerFrom wraps an existing sarama producer.
func NewProducerFrom(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// SendEvent sends one event keyed by session, so a session's events stay
// in order on one partition.
func (p *Producer) SendEvent(event ClientEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send %s event: %w", event.Type, err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
