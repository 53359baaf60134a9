package domain

import (
	"testing"
	"time"
)

func TestDirectionOpposites(t *testing.T) {
	directions := DefaultDirections()

	pairs := map[string]string{"n": "s", "s": "n", "e": "w", "w": "e"}
	for direction, want := range pairs {
		got, ok := directions.Opposite(direction)
		if !ok || got != want {
			t.Fatalf("Opposite(%q) = %q, %v; want %q", direction, got, ok, want)
		}
	}

	if _, ok := directions.Opposite("up"); ok {
		t.Fatal("unknown direction must not resolve")
	}
}

func TestEffectiveDeduction(t *testing.T) {
	explicit := 5
	tests := []struct {
		name   string
		riddle Riddle
		want   int
	}{
		{name: "explicit deduction wins", riddle: Riddle{Difficulty: 8, Deduction: &explicit}, want: 5},
		{name: "default is half the difficulty", riddle: Riddle{Difficulty: 8}, want: 4},
		{name: "odd difficulty rounds down", riddle: Riddle{Difficulty: 7}, want: 3},
		{name: "trivial riddle deducts nothing", riddle: Riddle{Difficulty: 1}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.riddle.EffectiveDeduction(); got != tc.want {
				t.Fatalf("EffectiveDeduction() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSolvedRiddle(t *testing.T) {
	now := time.Now()
	user := User{Solved: []RiddleAttempt{
		{RiddleID: "riddle-1", T0: &now, TSolved: &now},
	}}

	if !user.SolvedRiddle("riddle-1") {
		t.Fatal("solved riddle not found in history")
	}
	if user.SolvedRiddle("riddle-2") {
		t.Fatal("unsolved riddle reported as solved")
	}
}

func TestConfiguredSecondFactors(t *testing.T) {
	var none User
	if len(none.ConfiguredSecondFactors()) != 0 {
		t.Fatal("fresh user has no second factors")
	}

	totp := User{TOTPKey: []byte("secret")}
	factors := totp.ConfiguredSecondFactors()
	if len(factors) != 1 || factors[0] != SecondFactorTOTP {
		t.Fatalf("factors = %v", factors)
	}
}
