package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/port"
)

// StatsService aggregates per-game figures.
type StatsService struct {
	rooms  port.RoomRepository
	logger *zap.Logger
}

func NewStatsService(rooms port.RoomRepository, logger *zap.Logger) *StatsService {
	return &StatsService{rooms: rooms, logger: logger}
}

// GameStats summarizes the size of a game.
type GameStats struct {
	NumRooms   int
	NumRiddles int
	MaxScore   int
}

// GetStats counts a game's rooms, its distinct reachable riddles, and
// the score ceiling reachable by solving all of them.
func (s *StatsService) GetStats(ctx context.Context, gameID string) (*GameStats, error) {
	numRooms, err := s.rooms.CountByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}
	numRiddles, err := s.rooms.CountDistinctRiddles(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("count riddles: %w", err)
	}
	maxScore, err := s.rooms.MaxScore(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("compute max score: %w", err)
	}

	s.logger.Debug("game stats computed", zap.String("game_id", gameID))
	return &GameStats{NumRooms: numRooms, NumRiddles: numRiddles, MaxScore: maxScore}, nil
}
