package domain

import (
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// SecondFactor enumerates the supported second authentication factors.
type SecondFactor string

const (
	SecondFactorTOTP  SecondFactor = "TOTP"
	SecondFactorFIDO2 SecondFactor = "FIDO2"
)

// RiddleAttempt records one user's interaction with one riddle.
// T0 is stamped when the riddle is first presented; TSolved stays nil
// until a correct answer is accepted. Attempts are owned by the user
// record and never shared.
type RiddleAttempt struct {
	RiddleID string
	T0       *time.Time
	TSolved  *time.Time
}

// GameFinish marks the completion of a game by a user.
type GameFinish struct {
	GameID    string
	Timestamp time.Time
}

// User mirrors the persisted representation in the users table.
// A user starts out unactivated with a PIN; activation places them in
// the game's entry room. While activated a user is always in exactly
// one room.
type User struct {
	ID                   string
	Username             string
	Email                string
	Role                 Role
	PasswordHash         string
	PIN                  int
	Activated            bool
	Created              *time.Time
	Registered           *time.Time
	LastLogin            *time.Time
	Solved               []RiddleAttempt
	CurrentAttempt       *RiddleAttempt
	RoomsEntered         []string
	Level                int
	Score                int
	InRoom               *string
	AwaitingSecondFactor bool
	TOTPKey              []byte
	RecoveryKeys         []string
	WebauthnCredentials  []webauthn.Credential
	Finished             []GameFinish
}

// SolvedRiddle reports whether the riddle appears in the user's solved
// history.
func (u User) SolvedRiddle(riddleID string) bool {
	for _, attempt := range u.Solved {
		if attempt.RiddleID == riddleID {
			return true
		}
	}
	return false
}

// ConfiguredSecondFactors lists the second factors the user has set up.
func (u User) ConfiguredSecondFactors() []SecondFactor {
	factors := make([]SecondFactor, 0, 2)
	if len(u.TOTPKey) > 0 {
		factors = append(factors, SecondFactorTOTP)
	}
	if len(u.WebauthnCredentials) > 0 {
		factors = append(factors, SecondFactorFIDO2)
	}
	return factors
}
