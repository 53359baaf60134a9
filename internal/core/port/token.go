package port

import "github.com/raetselonkel/labyrinth/internal/core/domain"

// AuthClaims is the identity extracted from a verified token.
type AuthClaims struct {
	Username string
	Role     domain.Role
}

// TokenIssuer signs and verifies the bearer tokens binding
// {username, role, expiry}.
type TokenIssuer interface {
	Issue(username string, role domain.Role) (string, error)
	Parse(token string) (*AuthClaims, error)
}
