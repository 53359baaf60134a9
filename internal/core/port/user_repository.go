package port

import (
	"context"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. Mutating
// operations are conditioned on the activation state so that a stale
// or half-registered account cannot be modified unexpectedly; a
// guard mismatch surfaces as repository.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByUsernameAndPin only matches accounts that are not yet activated.
	GetByUsernameAndPin(ctx context.Context, username string, pin int) (*domain.User, error)
	GetRole(ctx context.Context, username string) (domain.Role, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	HasSolved(ctx context.Context, username, riddleID string) (bool, error)

	// Activate flips the account from pending to activated, assigns the
	// entry room, seeds the visited-rooms set, clears the PIN, and
	// stores the recovery keys. Guarded by activated = false.
	Activate(ctx context.Context, user domain.User) error

	// SetCurrentAttempt stamps the user's single in-progress attempt.
	SetCurrentAttempt(ctx context.Context, username string, attempt domain.RiddleAttempt) error

	// RecordSolved persists solved history, level, and score in one
	// update. Guarded by activated = true and by the riddle not yet
	// being present in the stored history, so two racing solves cannot
	// both append.
	RecordSolved(ctx context.Context, userID, riddleID string, solved []domain.RiddleAttempt, level, score int) error

	// UpdateScore persists the score only. Guarded by activated = true.
	UpdateScore(ctx context.Context, userID string, score int) error

	// MoveToRoom sets the current room, adds it to the visited set, and
	// optionally records a game-completion marker. Guarded by
	// activated = true.
	MoveToRoom(ctx context.Context, userID, roomID string, finish *domain.GameFinish) error

	SetAwaitingSecondFactor(ctx context.Context, userID string, awaiting bool) error
	// RecordLogin stamps last_login and clears the awaiting-second-factor flag.
	RecordLogin(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	// SetTOTPKey stores the shared TOTP secret; a nil key disables TOTP.
	SetTOTPKey(ctx context.Context, username string, key []byte) error
	SetRole(ctx context.Context, username string, role domain.Role) error
	SaveWebauthnCredentials(ctx context.Context, username string, credentials []webauthn.Credential) error
}
