package port

import (
	"context"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
)

// EventPublisher emits game lifecycle events to the message broker.
// Publishing is best-effort; callers log failures and continue.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserActivated(ctx context.Context, event domain.UserActivatedEvent) error
	PublishRiddleSolved(ctx context.Context, event domain.RiddleSolvedEvent) error
	PublishGameFinished(ctx context.Context, event domain.GameFinishedEvent) error
}
