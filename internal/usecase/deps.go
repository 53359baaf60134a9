package usecase

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// PasswordPolicy decides whether a new password is acceptable.
type PasswordPolicy interface {
	Validate(password string) error
}
