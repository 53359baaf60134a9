package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// SolveService judges solution attempts and applies their score
// consequences.
type SolveService struct {
	users   port.UserRepository
	riddles port.RiddleRepository
	access  *AccessService
	events  port.EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

func NewSolveService(
	users port.UserRepository,
	riddles port.RiddleRepository,
	access *AccessService,
	events port.EventPublisher,
	logger *zap.Logger,
) *SolveService {
	return &SolveService{
		users:   users,
		riddles: riddles,
		access:  access,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// SolveResult reports the outcome of a solution attempt.
type SolveResult struct {
	Solved bool
	Score  int
	Level  int
}

// Solve checks a submitted solution against the riddle. The raw
// solution arrives percent-encoded from the client and is decoded
// exactly once before comparison.
//
// A user who cannot access the riddle's doorway learns nothing beyond
// "riddle not found". The riddle must have been presented first, since
// presentation stamps the attempt timer.
func (s *SolveService) Solve(ctx context.Context, username, riddleID, rawSolution string) (*SolveResult, error) {
	solution, err := url.PathUnescape(rawSolution)
	if err != nil {
		solution = rawSolution
	}

	user, err := s.access.CheckAccess(ctx, username, riddleID)
	if err != nil {
		if errors.Is(err, ErrDoorwayNotAccessible) {
			return nil, ErrRiddleNotFound
		}
		return nil, err
	}

	riddle, err := s.riddles.GetByID(ctx, riddleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiddleNotFound
		}
		return nil, fmt.Errorf("load riddle: %w", err)
	}

	if user.SolvedRiddle(riddleID) {
		return nil, ErrRiddleAlreadySolved
	}

	attempt := user.CurrentAttempt
	if attempt == nil || attempt.T0 == nil || attempt.RiddleID != riddleID {
		return nil, ErrRiddleNotYetSeen
	}

	correct := solution == riddle.Solution
	if riddle.IgnoreCase {
		correct = strings.EqualFold(solution, riddle.Solution)
	}

	if !correct {
		score := user.Score - riddle.EffectiveDeduction()
		if err := s.users.UpdateScore(ctx, user.ID, score); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("apply score deduction: %w", err)
		}
		return &SolveResult{Solved: false, Score: score, Level: riddle.Level}, nil
	}

	solvedAt := s.now().UTC()
	solved := append(append([]domain.RiddleAttempt{}, user.Solved...), domain.RiddleAttempt{
		RiddleID: riddleID,
		T0:       attempt.T0,
		TSolved:  &solvedAt,
	})

	level := user.Level
	if riddle.Level > level {
		level = riddle.Level
	}
	score := user.Score + riddle.Difficulty

	// The repository refuses the update if the riddle was solved in the
	// meantime, so a concurrent duplicate attempt collapses into the
	// already-solved case.
	if err := s.users.RecordSolved(ctx, user.ID, riddleID, solved, level, score); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiddleAlreadySolved
		}
		return nil, fmt.Errorf("record solved riddle: %w", err)
	}

	event := domain.RiddleSolvedEvent{
		EventID:  uuid.NewString(),
		UserID:   user.ID,
		Username: username,
		RiddleID: riddleID,
		Level:    riddle.Level,
		Score:    score,
		SolvedAt: solvedAt,
	}
	if err := s.events.PublishRiddleSolved(ctx, event); err != nil {
		s.logger.Warn("failed to publish riddle solved event",
			zap.String("riddle_id", riddleID), zap.Error(err))
	}

	return &SolveResult{Solved: true, Score: score, Level: riddle.Level}, nil
}
