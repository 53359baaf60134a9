package port

import (
	"context"

	"github.com/go-webauthn/webauthn/webauthn"
)

// WebauthnSessionStore keeps the short-lived challenge state between
// the start and finish legs of a WebAuthn ceremony.
type WebauthnSessionStore interface {
	Save(ctx context.Context, purpose, username string, session *webauthn.SessionData) error
	// Take returns the stored session and removes it, so a challenge
	// can only be answered once.
	Take(ctx context.Context, purpose, username string) (*webauthn.SessionData, error)
}
