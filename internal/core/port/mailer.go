package port

import "context"

// Mailer delivers the activation PIN to a freshly registered user.
type Mailer interface {
	SendActivationPin(ctx context.Context, username, email string, pin int) error
}
