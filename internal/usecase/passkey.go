package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

const (
	ceremonyRegister = "register"
	ceremonyLogin    = "login"
)

// PasskeyService runs the WebAuthn registration and login ceremonies.
type PasskeyService struct {
	users    port.UserRepository
	sessions port.WebauthnSessionStore
	wa       *webauthn.WebAuthn
	tokens   port.TokenIssuer
	logger   *zap.Logger
}

func NewPasskeyService(
	users port.UserRepository,
	sessions port.WebauthnSessionStore,
	wa *webauthn.WebAuthn,
	tokens port.TokenIssuer,
	logger *zap.Logger,
) *PasskeyService {
	return &PasskeyService{
		users:    users,
		sessions: sessions,
		wa:       wa,
		tokens:   tokens,
		logger:   logger,
	}
}

// webauthnUser adapts a domain user to the webauthn library's user
// interface.
type webauthnUser struct {
	user *domain.User
}

func (u webauthnUser) WebAuthnID() []byte                         { return []byte(u.user.ID) }
func (u webauthnUser) WebAuthnName() string                       { return u.user.Username }
func (u webauthnUser) WebAuthnDisplayName() string                { return u.user.Username }
func (u webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.user.WebauthnCredentials }

func (s *PasskeyService) loadUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// BeginRegistration starts a passkey enrollment ceremony for an
// authenticated user.
func (s *PasskeyService) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, error) {
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}

	creation, session, err := s.wa.BeginRegistration(webauthnUser{user: user})
	if err != nil {
		return nil, fmt.Errorf("begin webauthn registration: %w", err)
	}

	if err := s.sessions.Save(ctx, ceremonyRegister, username, session); err != nil {
		return nil, fmt.Errorf("store webauthn session: %w", err)
	}
	return creation, nil
}

// FinishRegistration validates the attestation response and stores the
// new credential.
func (s *PasskeyService) FinishRegistration(ctx context.Context, username string, response []byte) error {
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return err
	}

	session, err := s.sessions.Take(ctx, ceremonyRegister, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCeremonyNotFound
		}
		return fmt.Errorf("load webauthn session: %w", err)
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return fmt.Errorf("parse credential creation response: %w", err)
	}

	credential, err := s.wa.CreateCredential(webauthnUser{user: user}, *session, parsed)
	if err != nil {
		return fmt.Errorf("create webauthn credential: %w", err)
	}

	credentials := append(append([]webauthn.Credential{}, user.WebauthnCredentials...), *credential)
	if err := s.users.SaveWebauthnCredentials(ctx, username, credentials); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("store webauthn credentials: %w", err)
	}

	s.logger.Info("passkey registered", zap.String("username", username))
	return nil
}

// BeginLogin starts a passkey assertion ceremony.
func (s *PasskeyService) BeginLogin(ctx context.Context, username string) (*protocol.CredentialAssertion, error) {
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(user.WebauthnCredentials) == 0 {
		return nil, ErrSecondFactorNotPending
	}

	assertion, session, err := s.wa.BeginLogin(webauthnUser{user: user})
	if err != nil {
		return nil, fmt.Errorf("begin webauthn login: %w", err)
	}

	if err := s.sessions.Save(ctx, ceremonyLogin, username, session); err != nil {
		return nil, fmt.Errorf("store webauthn session: %w", err)
	}
	return assertion, nil
}

// FinishLogin validates the assertion response, completes the pending
// login, and returns a bearer token.
func (s *PasskeyService) FinishLogin(ctx context.Context, username string, response []byte) (*LoginResult, error) {
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Take(ctx, ceremonyLogin, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCeremonyNotFound
		}
		return nil, fmt.Errorf("load webauthn session: %w", err)
	}

	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, fmt.Errorf("parse credential request response: %w", err)
	}

	credential, err := s.wa.ValidateLogin(webauthnUser{user: user}, *session, parsed)
	if err != nil {
		return nil, ErrWrongCredentials
	}

	// Persist the updated sign count so clone detection keeps working.
	credentials := append([]webauthn.Credential{}, user.WebauthnCredentials...)
	for i := range credentials {
		if string(credentials[i].ID) == string(credential.ID) {
			credentials[i].Authenticator = credential.Authenticator
		}
	}
	if err := s.users.SaveWebauthnCredentials(ctx, username, credentials); err != nil {
		s.logger.Warn("failed to update webauthn credentials",
			zap.String("username", username), zap.Error(err))
	}

	if err := s.users.RecordLogin(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWrongCredentials
		}
		return nil, fmt.Errorf("record login: %w", err)
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in with passkey", zap.String("username", username))
	return &LoginResult{Authenticated: true, Token: token, User: user}, nil
}
