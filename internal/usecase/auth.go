package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/security"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

// AuthService handles password logins and TOTP completion.
type AuthService struct {
	users  port.UserRepository
	hasher PasswordHasher
	tokens port.TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	users port.UserRepository,
	hasher PasswordHasher,
	tokens port.TokenIssuer,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// LoginResult is the outcome of a login attempt. When Authenticated is
// false, PendingFactors lists the second factors the user may complete
// the login with.
type LoginResult struct {
	Authenticated  bool
	Token          string
	PendingFactors []domain.SecondFactor
	User           *domain.User
}

// Login verifies the password and decides whether a second factor is
// still required. A TOTP code may be supplied inline; it is checked
// against the current time step only. Users with registered passkeys
// always have to complete the login with a second factor.
func (s *AuthService) Login(ctx context.Context, username, password string, totpCode *string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrWrongCredentials
	}

	authenticated := true
	var pending []domain.SecondFactor

	if len(user.TOTPKey) > 0 {
		if totpCode != nil && *totpCode != "" {
			if !security.ValidateTOTP(user.TOTPKey, *totpCode, s.now(), false) {
				return nil, ErrWrongCredentials
			}
		} else {
			authenticated = false
			pending = append(pending, domain.SecondFactorTOTP)
		}
	}

	if len(user.WebauthnCredentials) > 0 {
		authenticated = false
		pending = append(pending, domain.SecondFactorFIDO2)
	}

	if !authenticated {
		if err := s.users.SetAwaitingSecondFactor(ctx, user.ID, true); err != nil {
			return nil, fmt.Errorf("mark login pending: %w", err)
		}
		return &LoginResult{Authenticated: false, PendingFactors: pending, User: user}, nil
	}

	return s.completeLogin(ctx, user)
}

// CompleteTOTP finishes a login that Login left pending on a TOTP code.
// The code is accepted for the current and the previous time step.
func (s *AuthService) CompleteTOTP(ctx context.Context, username, code string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.AwaitingSecondFactor || len(user.TOTPKey) == 0 {
		return nil, ErrSecondFactorNotPending
	}

	if !security.ValidateTOTP(user.TOTPKey, code, s.now(), true) {
		return nil, ErrWrongCredentials
	}

	return s.completeLogin(ctx, user)
}

func (s *AuthService) completeLogin(ctx context.Context, user *domain.User) (*LoginResult, error) {
	if err := s.users.RecordLogin(ctx, user.Username); err != nil {
		// Only activated accounts can log in.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, fmt.Errorf("record login: %w", err)
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return &LoginResult{Authenticated: true, Token: token, User: user}, nil
}
