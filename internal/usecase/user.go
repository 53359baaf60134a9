package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/security"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// UserService covers account self-management and admin operations.
type UserService struct {
	users      port.UserRepository
	hasher     PasswordHasher
	policy     PasswordPolicy
	totpIssuer string
	logger     *zap.Logger
}

func NewUserService(
	users port.UserRepository,
	hasher PasswordHasher,
	policy PasswordPolicy,
	totpIssuer string,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:      users,
		hasher:     hasher,
		policy:     policy,
		totpIssuer: totpIssuer,
		logger:     logger,
	}
}

// Whoami returns the user's own record.
func (s *UserService) Whoami(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the user's password after policy checks.
func (s *UserService) ChangePassword(ctx context.Context, username, newPassword string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Promote raises another user's role. Only admins may promote, nobody
// may change their own role, and the new role must rank strictly above
// the target's current one.
func (s *UserService) Promote(ctx context.Context, actor string, actorRole domain.Role, target, roleName string) error {
	if actorRole != domain.RoleAdmin {
		return ErrInsufficientRights
	}
	if actor == target {
		return ErrCannotChangeOwnRole
	}

	newRole := domain.Role(roleName)
	if !newRole.Valid() {
		return ErrRoleNotHigher
	}

	currentRole, err := s.users.GetRole(ctx, target)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load target role: %w", err)
	}
	if !currentRole.Less(newRole) {
		return ErrRoleNotHigher
	}

	if err := s.users.SetRole(ctx, target, newRole); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set role: %w", err)
	}

	s.logger.Info("user promoted",
		zap.String("actor", actor),
		zap.String("target", target),
		zap.String("role", string(newRole)),
	)
	return nil
}

// EnableTOTP generates a fresh shared secret and returns the
// provisioning URL to encode into a QR code.
func (s *UserService) EnableTOTP(ctx context.Context, username string) (string, error) {
	key, err := security.GenerateTOTPKey()
	if err != nil {
		return "", fmt.Errorf("generate totp key: %w", err)
	}

	if err := s.users.SetTOTPKey(ctx, username, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store totp key: %w", err)
	}

	return security.TOTPProvisioningURL(s.totpIssuer, username, key), nil
}

// DisableTOTP removes the user's TOTP secret.
func (s *UserService) DisableTOTP(ctx context.Context, username string) error {
	if err := s.users.SetTOTPKey(ctx, username, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear totp key: %w", err)
	}
	return nil
}
