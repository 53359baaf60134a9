package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful
// for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs labyrinth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"username":      event.Username,
		"email":         event.Email,
		"second_factor": event.SecondFactor,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("labyrinth.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishUserActivated logs labyrinth.user.activated events.
func (p *StubPublisher) PublishUserActivated(_ context.Context, event domain.UserActivatedEvent) error {
	payload := map[string]any{
		"username":      event.Username,
		"entry_room_id": event.EntryRoomID,
		"game_id":       event.GameID,
		"activated_at":  event.ActivatedAt,
	}
	p.logEvent("labyrinth.user.activated", event.UserID, event.ActivatedAt, payload)
	return nil
}

// PublishRiddleSolved logs labyrinth.riddle.solved events.
func (p *StubPublisher) PublishRiddleSolved(_ context.Context, event domain.RiddleSolvedEvent) error {
	payload := map[string]any{
		"username":  event.Username,
		"riddle_id": event.RiddleID,
		"level":     event.Level,
		"score":     event.Score,
		"solved_at": event.SolvedAt,
	}
	p.logEvent("labyrinth.riddle.solved", event.UserID, event.SolvedAt, payload)
	return nil
}

// PublishGameFinished logs labyrinth.game.finished events.
func (p *StubPublisher) PublishGameFinished(_ context.Context, event domain.GameFinishedEvent) error {
	payload := map[string]any{
		"username":    event.Username,
		"game_id":     event.GameID,
		"finished_at": event.FinishedAt,
	}
	p.logEvent("labyrinth.game.finished", event.UserID, event.FinishedAt, payload)
	return nil
}
