package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/logger"
	"github.com/raetselonkel/labyrinth/internal/infra/security"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

var (
	usernameRegex = regexp.MustCompile(`^\w+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

// RegistrationService creates new accounts and activates them.
type RegistrationService struct {
	users         port.UserRepository
	rooms         port.RoomRepository
	hasher        PasswordHasher
	policy        PasswordPolicy
	mailer        port.Mailer
	events        port.EventPublisher
	tokens        port.TokenIssuer
	totpIssuer    string
	defaultGameID string
	logger        *zap.Logger
	now           func() time.Time
}

func NewRegistrationService(
	users port.UserRepository,
	rooms port.RoomRepository,
	hasher PasswordHasher,
	policy PasswordPolicy,
	mailer port.Mailer,
	events port.EventPublisher,
	tokens port.TokenIssuer,
	totpIssuer string,
	defaultGameID string,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		users:         users,
		rooms:         rooms,
		hasher:        hasher,
		policy:        policy,
		mailer:        mailer,
		events:        events,
		tokens:        tokens,
		totpIssuer:    totpIssuer,
		defaultGameID: defaultGameID,
		logger:        log,
		now:           time.Now,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	SecondFactor *domain.SecondFactor
}

// Register creates a pending account and dispatches its activation PIN.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) error {
	if !usernameRegex.MatchString(input.Username) {
		return ErrInvalidUsername
	}
	if !emailRegex.MatchString(input.Email) {
		return ErrInvalidEmail
	}
	if err := s.policy.Validate(input.Password); err != nil {
		return err
	}

	taken, err := s.users.UsernameOrEmailTaken(ctx, input.Username, input.Email)
	if err != nil {
		return fmt.Errorf("check username availability: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	pin, err := security.GeneratePIN()
	if err != nil {
		return fmt.Errorf("generate activation pin: %w", err)
	}

	created := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		Role:         domain.RoleUser,
		PasswordHash: hash,
		PIN:          pin,
		Activated:    false,
		Created:      &created,
	}

	if input.SecondFactor != nil && *input.SecondFactor == domain.SecondFactorTOTP {
		if user.TOTPKey, err = security.GenerateTOTPKey(); err != nil {
			return fmt.Errorf("generate totp key: %w", err)
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	// The PIN mail is best effort; an admin can always resend it.
	if err := s.mailer.SendActivationPin(ctx, user.Username, user.Email, pin); err != nil {
		s.logger.Warn("failed to send activation mail",
			zap.String("username", user.Username),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err))
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		SecondFactor: input.SecondFactor,
		RegisteredAt: created,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("failed to publish user registered event",
			zap.String("username", user.Username), zap.Error(err))
	}

	return nil
}

// ActivationResult is handed to a freshly activated user. The recovery
// keys are shown exactly once.
type ActivationResult struct {
	Token               string
	RecoveryKeys        []string
	TOTPProvisioningURL *string
	EntryRoom           *domain.Room
}

// Activate matches username and PIN against a pending account, places
// the user in the entry room, and logs them in.
func (s *RegistrationService) Activate(ctx context.Context, username string, pin int) (*ActivationResult, error) {
	user, err := s.users.GetByUsernameAndPin(ctx, username, pin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load pending user: %w", err)
	}

	entry, err := s.rooms.FindEntry(ctx, s.defaultGameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("find entry room: %w", err)
	}

	recoveryKeys, err := security.GenerateRecoveryKeys()
	if err != nil {
		return nil, fmt.Errorf("generate recovery keys: %w", err)
	}

	activatedAt := s.now().UTC()
	user.Registered = &activatedAt
	user.LastLogin = &activatedAt
	user.InRoom = &entry.ID
	user.RoomsEntered = []string{entry.ID}
	user.RecoveryKeys = recoveryKeys

	if err := s.users.Activate(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("activate user: %w", err)
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	result := &ActivationResult{
		Token:        token,
		RecoveryKeys: recoveryKeys,
		EntryRoom:    entry,
	}
	if len(user.TOTPKey) > 0 {
		url := security.TOTPProvisioningURL(s.totpIssuer, user.Username, user.TOTPKey)
		result.TOTPProvisioningURL = &url
	}

	event := domain.UserActivatedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		EntryRoomID: entry.ID,
		GameID:      entry.GameID,
		ActivatedAt: activatedAt,
	}
	if err := s.events.PublishUserActivated(ctx, event); err != nil {
		s.logger.Warn("failed to publish user activated event",
			zap.String("username", user.Username), zap.Error(err))
	}

	return result, nil
}
