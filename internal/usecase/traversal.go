package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// TraversalService moves users between rooms through riddle-gated
// doorways.
type TraversalService struct {
	users      port.UserRepository
	rooms      port.RoomRepository
	directions domain.DirectionTable
	events     port.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewTraversalService(
	users port.UserRepository,
	rooms port.RoomRepository,
	directions domain.DirectionTable,
	events port.EventPublisher,
	logger *zap.Logger,
) *TraversalService {
	return &TraversalService{
		users:      users,
		rooms:      rooms,
		directions: directions,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// MoveResult describes where a move ended up.
type MoveResult struct {
	Room     *domain.Room
	Finished bool
}

// Go moves the user through the doorway in the given direction. The
// doorway's riddle must already be solved. Stepping out of an exit
// room records a game completion.
func (s *TraversalService) Go(ctx context.Context, username, direction string) (*MoveResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.InRoom == nil {
		return nil, ErrUserHasNoLocation
	}

	room, err := s.rooms.GetByID(ctx, *user.InRoom)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	var doorway *domain.Doorway
	for i := range room.Neighbors {
		if room.Neighbors[i].Direction == direction {
			doorway = &room.Neighbors[i]
			break
		}
	}
	if doorway == nil {
		return nil, ErrNeighborNotFound
	}

	if !user.SolvedRiddle(doorway.RiddleID) {
		return nil, ErrRiddleNotSolved
	}

	opposite, ok := s.directions.Opposite(direction)
	if !ok {
		return nil, ErrNeighborNotFound
	}

	// The destination is the room whose own edge set points back at us
	// through the same riddle.
	behind, err := s.rooms.FindBehind(ctx, opposite, doorway.RiddleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomBehindNotFound
		}
		return nil, fmt.Errorf("find room behind doorway: %w", err)
	}

	var finish *domain.GameFinish
	if room.Exit {
		finish = &domain.GameFinish{GameID: room.GameID, Timestamp: s.now().UTC()}
	}

	if err := s.users.MoveToRoom(ctx, user.ID, behind.ID, finish); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("move user: %w", err)
	}

	if finish != nil {
		event := domain.GameFinishedEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			Username:   username,
			GameID:     room.GameID,
			FinishedAt: finish.Timestamp,
		}
		if err := s.events.PublishGameFinished(ctx, event); err != nil {
			s.logger.Warn("failed to publish game finished event",
				zap.String("game_id", room.GameID), zap.Error(err))
		}
	}

	return &MoveResult{Room: behind, Finished: finish != nil}, nil
}
