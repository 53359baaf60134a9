package port

import (
	"context"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
)

// RoomRepository exposes read access to the static room graph.
type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	// FindBehind locates the room on the far side of a doorway: the one
	// whose own edge set contains {direction, riddleID}.
	FindBehind(ctx context.Context, direction, riddleID string) (*domain.Room, error)
	// FindEntry returns the entry room of a game. An empty gameID
	// matches any game's entry room.
	FindEntry(ctx context.Context, gameID string) (*domain.Room, error)
	CountByGame(ctx context.Context, gameID string) (int, error)
	// CountDistinctRiddles counts the distinct riddles reachable via
	// the doorways of a game's rooms.
	CountDistinctRiddles(ctx context.Context, gameID string) (int, error)
	// MaxScore sums the difficulties of the distinct riddles reachable
	// within a game.
	MaxScore(ctx context.Context, gameID string) (int, error)
}
