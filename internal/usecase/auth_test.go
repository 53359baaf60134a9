package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/infra/security"
)

var totpTestKey = []byte("12345678901234567890")

func authFixture(t *testing.T) (*AuthService, *stubUserRepo) {
	t.Helper()

	user := &domain.User{
		ID:           "u-1",
		Username:     "theseus",
		Role:         domain.RoleUser,
		PasswordHash: "hashed:correct-horse",
		Activated:    true,
	}
	users := newStubUserRepo(user)
	svc := NewAuthService(users, &stubHasher{}, &stubTokenIssuer{}, testLogger())
	svc.now = fixedNow
	return svc, users
}

func TestLoginPasswordOnly(t *testing.T) {
	svc, users := authFixture(t)

	result, err := svc.Login(context.Background(), "theseus", "correct-horse", nil)
	mustNoErr(t, err)

	if !result.Authenticated {
		t.Fatal("password-only account must authenticate in one step")
	}
	if result.Token == "" {
		t.Fatal("authenticated login must carry a token")
	}
	if len(users.logins) != 1 {
		t.Fatalf("recorded logins = %d, want 1", len(users.logins))
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	svc, _ := authFixture(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "theseus", password: "wrong"},
		{name: "unknown user", username: "minos", password: "correct-horse"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tc.username, tc.password, nil); !errors.Is(err, ErrWrongCredentials) {
				t.Fatalf("Login() error = %v, want %v", err, ErrWrongCredentials)
			}
		})
	}
}

func TestLoginUnactivatedAccount(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].Activated = false

	if _, err := svc.Login(context.Background(), "theseus", "correct-horse", nil); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("Login() error = %v, want %v", err, ErrWrongCredentials)
	}
}

func TestLoginTOTPPending(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey

	result, err := svc.Login(context.Background(), "theseus", "correct-horse", nil)
	mustNoErr(t, err)

	if result.Authenticated {
		t.Fatal("TOTP account must not authenticate without a code")
	}
	if result.Token != "" {
		t.Fatal("pending login must not carry a token")
	}
	if len(result.PendingFactors) != 1 || result.PendingFactors[0] != domain.SecondFactorTOTP {
		t.Fatalf("pending factors = %v", result.PendingFactors)
	}
	if !users.awaiting["u-1"] {
		t.Fatal("pending login must mark the account awaiting a second factor")
	}
}

func TestLoginInlineTOTP(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey

	code := security.TOTPCode(totpTestKey, fixedNow())
	result, err := svc.Login(context.Background(), "theseus", "correct-horse", &code)
	mustNoErr(t, err)

	if !result.Authenticated {
		t.Fatal("valid inline TOTP code must complete the login")
	}
}

func TestLoginInlineTOTPCurrentStepOnly(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey

	stale := security.TOTPCode(totpTestKey, fixedNow().Add(-30*time.Second))
	if _, err := svc.Login(context.Background(), "theseus", "correct-horse", &stale); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("Login() error = %v, want %v", err, ErrWrongCredentials)
	}
}

func TestLoginPasskeysForceSecondFactor(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey
	users.users["theseus"].WebauthnCredentials = []webauthn.Credential{{ID: []byte("cred-1")}}

	// Even a valid inline code cannot bypass the passkey requirement.
	code := security.TOTPCode(totpTestKey, fixedNow())
	result, err := svc.Login(context.Background(), "theseus", "correct-horse", &code)
	mustNoErr(t, err)

	if result.Authenticated {
		t.Fatal("passkey account must complete the login with a second factor")
	}
	found := false
	for _, factor := range result.PendingFactors {
		if factor == domain.SecondFactorFIDO2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("pending factors = %v, want FIDO2 listed", result.PendingFactors)
	}
}

func TestCompleteTOTP(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey
	users.users["theseus"].AwaitingSecondFactor = true

	result, err := svc.CompleteTOTP(context.Background(), "theseus", security.TOTPCode(totpTestKey, fixedNow()))
	mustNoErr(t, err)

	if !result.Authenticated || result.Token == "" {
		t.Fatalf("CompleteTOTP() result = %+v", result)
	}
	if len(users.logins) != 1 {
		t.Fatal("completed login must be recorded")
	}
}

func TestCompleteTOTPAcceptsPreviousStep(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey
	users.users["theseus"].AwaitingSecondFactor = true

	code := security.TOTPCode(totpTestKey, fixedNow().Add(-30*time.Second))
	result, err := svc.CompleteTOTP(context.Background(), "theseus", code)
	mustNoErr(t, err)

	if !result.Authenticated {
		t.Fatal("code from the previous step must still be accepted")
	}
}

func TestCompleteTOTPWrongCode(t *testing.T) {
	svc, users := authFixture(t)
	users.users["theseus"].TOTPKey = totpTestKey
	users.users["theseus"].AwaitingSecondFactor = true

	if _, err := svc.CompleteTOTP(context.Background(), "theseus", "000000"); !errors.Is(err, ErrWrongCredentials) {
		t.Fatalf("CompleteTOTP() error = %v, want %v", err, ErrWrongCredentials)
	}
}

func TestCompleteTOTPNotPending(t *testing.T) {
	tests := []struct {
		name  string
		setup func(u *domain.User)
	}{
		{
			name:  "no login pending",
			setup: func(u *domain.User) { u.TOTPKey = totpTestKey },
		},
		{
			name:  "no TOTP configured",
			setup: func(u *domain.User) { u.AwaitingSecondFactor = true },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, users := authFixture(t)
			tc.setup(users.users["theseus"])

			code := security.TOTPCode(totpTestKey, fixedNow())
			if _, err := svc.CompleteTOTP(context.Background(), "theseus", code); !errors.Is(err, ErrSecondFactorNotPending) {
				t.Fatalf("CompleteTOTP() error = %v, want %v", err, ErrSecondFactorNotPending)
			}
		})
	}
}
