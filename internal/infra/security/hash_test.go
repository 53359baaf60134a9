package security

import (
	"strings"
	"testing"

	"github.com/raetselonkel/labyrinth/internal/infra/config"
)

func testHasher() *PasswordHasher {
	// Low-cost parameters keep the test fast.
	return NewPasswordHasher(config.Argon2Settings{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestHashAndVerify(t *testing.T) {
	hasher := testHasher()

	encoded, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("encoded hash = %q", encoded)
	}

	ok, err := hasher.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify() = %v, %v; want match", ok, err)
	}

	ok, err = hasher.Verify("battery-staple", encoded)
	if err != nil || ok {
		t.Fatalf("Verify() = %v, %v; want mismatch", ok, err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher := testHasher()

	first, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifySurvivesParameterChange(t *testing.T) {
	old := NewPasswordHasher(config.Argon2Settings{
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	encoded, err := old.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// The encoded form carries its own parameters.
	current := NewPasswordHasher(config.Argon2Settings{
		Memory: 16 * 1024, Iterations: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32,
	})
	ok, err := current.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify() = %v, %v; want match with old parameters", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := testHasher()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "wrong segment count", encoded: "argon2id$v=19$m=8192,t=1,p=1$salt"},
		{name: "unknown variant", encoded: "bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "bad parameters", encoded: "argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA"},
		{name: "bad base64 salt", encoded: "argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if ok, _ := hasher.Verify("password", tc.encoded); ok {
				t.Fatal("malformed hash must never verify")
			}
		})
	}
}
