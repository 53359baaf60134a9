package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// AccessService answers whether a user may interact with a riddle and
// assembles riddle views for presentation.
type AccessService struct {
	users   port.UserRepository
	rooms   port.RoomRepository
	riddles port.RiddleRepository
	blobs   port.BlobStore
	logger  *zap.Logger
	now     func() time.Time
}

func NewAccessService(
	users port.UserRepository,
	rooms port.RoomRepository,
	riddles port.RiddleRepository,
	blobs port.BlobStore,
	logger *zap.Logger,
) *AccessService {
	return &AccessService{
		users:   users,
		rooms:   rooms,
		riddles: riddles,
		blobs:   blobs,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckAccess verifies that the named riddle gates a doorway of the
// room the user currently stands in. It returns the loaded user so
// callers can continue with it.
func (s *AccessService) CheckAccess(ctx context.Context, username, riddleID string) (*domain.User, error) {
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

	for _, doorway := range room.Neighbors {
		if doorway.RiddleID == riddleID {
			return user, nil
		}
	}
	return nil, ErrDoorwayNotAccessible
}

// AssetVariant is an alternative rendering of an asset with its data
// loaded.
type AssetVariant struct {
	Variant domain.FileVariant
	Data    []byte
}

// Asset is a riddle file with its blob data loaded.
type Asset struct {
	File     domain.RiddleFile
	Data     []byte
	Variants []AssetVariant
}

// RiddleView is what a player gets to see of a riddle: everything
// except the solution.
type RiddleView struct {
	ID         string
	Level      int
	Difficulty int
	Deduction  int
	IgnoreCase bool
	Task       *string
	Credits    *string
	Files      []Asset
}

// GetRiddle presents a riddle to the user. Presentation starts the
// attempt timer, so the stamp is persisted before the riddle data is
// returned.
func (s *AccessService) GetRiddle(ctx context.Context, username, riddleID string) (*RiddleView, error) {
	if _, err := s.CheckAccess(ctx, username, riddleID); err != nil {
		return nil, err
	}

	riddle, err := s.riddles.GetByID(ctx, riddleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiddleNotFound
		}
		return nil, fmt.Errorf("load riddle: %w", err)
	}

	t0 := s.now().UTC()
	attempt := domain.RiddleAttempt{RiddleID: riddleID, T0: &t0}
	if err := s.users.SetCurrentAttempt(ctx, username, attempt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("stamp riddle attempt: %w", err)
	}

	view := &RiddleView{
		ID:         riddle.ID,
		Level:      riddle.Level,
		Difficulty: riddle.Difficulty,
		Deduction:  riddle.EffectiveDeduction(),
		IgnoreCase: riddle.IgnoreCase,
		Task:       riddle.Task,
		Credits:    riddle.Credits,
	}

	for _, file := range riddle.Files {
		asset := Asset{File: file}
		asset.Data, err = s.blobs.Fetch(ctx, file.ObjectName)
		if err != nil {
			return nil, fmt.Errorf("fetch riddle asset %s: %w", file.ObjectName, err)
		}
		for _, variant := range file.Variants {
			data, err := s.blobs.Fetch(ctx, variant.ObjectName)
			if err != nil {
				return nil, fmt.Errorf("fetch riddle asset variant %s: %w", variant.ObjectName, err)
			}
			asset.Variants = append(asset.Variants, AssetVariant{Variant: variant, Data: data})
		}
		view.Files = append(view.Files, asset)
	}

	return view, nil
}

// GetDebriefing returns the debriefing text of a riddle the user has
// already solved. Unsolved riddles are indistinguishable from missing
// ones.
func (s *AccessService) GetDebriefing(ctx context.Context, username, riddleID string) (*string, error) {
	solved, err := s.users.HasSolved(ctx, username, riddleID)
	if err != nil {
		return nil, fmt.Errorf("check solved riddle: %w", err)
	}
	if !solved {
		return nil, ErrRiddleNotFound
	}

	riddle, err := s.riddles.GetByID(ctx, riddleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiddleNotFound
		}
		return nil, fmt.Errorf("load riddle: %w", err)
	}
	return riddle.Debriefing, nil
}

// GetRiddleByLevel returns the full riddle for a level, solution
// included. Reserved for game designers and admins.
func (s *AccessService) GetRiddleByLevel(ctx context.Context, level int) (*domain.Riddle, error) {
	riddle, err := s.riddles.GetByLevel(ctx, level)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRiddleNotFound
		}
		return nil, fmt.Errorf("load riddle by level: %w", err)
	}
	return riddle, nil
}
