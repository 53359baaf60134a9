package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes labyrinth.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		SecondFactor *string   `json:"second_factor,omitempty"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}
	if event.SecondFactor != nil {
		factor := string(*event.SecondFactor)
		payload.SecondFactor = &factor
	}

	return p.publish(ctx, event.EventID, "labyrinth.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishUserActivated publishes labyrinth.user.activated events.
func (p *EventPublisher) PublishUserActivated(ctx context.Context, event domain.UserActivatedEvent) error {
	payload := struct {
		UserID      string    `json:"user_id"`
		Username    string    `json:"username"`
		EntryRoomID string    `json:"entry_room_id"`
		GameID      string    `json:"game_id,omitempty"`
		ActivatedAt time.Time `json:"activated_at"`
	}{
		UserID:      event.UserID,
		Username:    event.Username,
		EntryRoomID: event.EntryRoomID,
		GameID:      event.GameID,
		ActivatedAt: event.ActivatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "labyrinth.user.activated", event.UserID, event.ActivatedAt, payload)
}

// PublishRiddleSolved publishes labyrinth.riddle.solved events.
func (p *EventPublisher) PublishRiddleSolved(ctx context.Context, event domain.RiddleSolvedEvent) error {
	payload := struct {
		UserID   string    `json:"user_id"`
		Username string    `json:"username"`
		RiddleID string    `json:"riddle_id"`
		Level    int       `json:"level"`
		Score    int       `json:"score"`
		SolvedAt time.Time `json:"solved_at"`
	}{
		UserID:   event.UserID,
		Username: event.Username,
		RiddleID: event.RiddleID,
		Level:    event.Level,
		Score:    event.Score,
		SolvedAt: event.SolvedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "labyrinth.riddle.solved", event.UserID, event.SolvedAt, payload)
}

// PublishGameFinished publishes labyrinth.game.finished events.
func (p *EventPublisher) PublishGameFinished(ctx context.Context, event domain.GameFinishedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Username   string    `json:"username"`
		GameID     string    `json:"game_id"`
		FinishedAt time.Time `json:"finished_at"`
	}{
		UserID:     event.UserID,
		Username:   event.Username,
		GameID:     event.GameID,
		FinishedAt: event.FinishedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "labyrinth.game.finished", event.UserID, event.FinishedAt, payload)
}
