package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
)

func solveFixture(t *testing.T) (*SolveService, *stubUserRepo, *stubRiddleRepo, *stubEventPublisher) {
	t.Helper()

	t0 := fixedNow().Add(-time.Minute)
	user := &domain.User{
		ID:             "u-1",
		Username:       "ariadne",
		Activated:      true,
		Score:          10,
		Level:          1,
		InRoom:         strPtr("room-1"),
		CurrentAttempt: &domain.RiddleAttempt{RiddleID: "riddle-1", T0: &t0},
	}
	room := &domain.Room{
		ID:     "room-1",
		GameID: "game-1",
		Neighbors: []domain.Doorway{
			{Direction: "n", RiddleID: "riddle-1", Level: 2},
		},
	}
	riddle := &domain.Riddle{
		ID:         "riddle-1",
		Level:      2,
		Difficulty: 6,
		Solution:   "Minotaur",
	}

	users := newStubUserRepo(user)
	rooms := newStubRoomRepo(room)
	riddles := newStubRiddleRepo(riddle)
	events := &stubEventPublisher{}

	access := NewAccessService(users, rooms, riddles, &stubBlobStore{}, testLogger())
	svc := NewSolveService(users, riddles, access, events, testLogger())
	svc.now = fixedNow
	return svc, users, riddles, events
}

func TestSolveCorrectSolution(t *testing.T) {
	svc, users, _, events := solveFixture(t)

	result, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "Minotaur")
	mustNoErr(t, err)

	if !result.Solved {
		t.Fatal("Solve() should accept the correct solution")
	}
	if result.Score != 16 {
		t.Fatalf("Solve() score = %d, want difficulty added to 10", result.Score)
	}
	if result.Level != 2 {
		t.Fatalf("Solve() level = %d, want 2", result.Level)
	}

	if len(users.solvedCalls) != 1 {
		t.Fatalf("RecordSolved calls = %d, want 1", len(users.solvedCalls))
	}
	call := users.solvedCalls[0]
	if call.level != 2 || call.score != 16 {
		t.Fatalf("RecordSolved level/score = %d/%d", call.level, call.score)
	}
	if len(call.solved) != 1 || call.solved[0].RiddleID != "riddle-1" {
		t.Fatalf("RecordSolved history = %+v", call.solved)
	}
	if call.solved[0].TSolved == nil || !call.solved[0].TSolved.Equal(fixedNow()) {
		t.Fatalf("RecordSolved t_solved = %v", call.solved[0].TSolved)
	}
	if call.solved[0].T0 == nil {
		t.Fatal("RecordSolved must carry the presentation time forward")
	}

	if len(events.solved) != 1 {
		t.Fatalf("published solved events = %d, want 1", len(events.solved))
	}
	if events.solved[0].RiddleID != "riddle-1" || events.solved[0].Score != 16 {
		t.Fatalf("solved event = %+v", events.solved[0])
	}
}

func TestSolveKeepsHigherLevel(t *testing.T) {
	svc, users, _, _ := solveFixture(t)
	users.users["ariadne"].Level = 5

	result, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "Minotaur")
	mustNoErr(t, err)

	if result.Level != 2 {
		t.Fatalf("Solve() reported level = %d, want the riddle's level", result.Level)
	}
	if users.solvedCalls[0].level != 5 {
		t.Fatalf("stored level = %d, a solved riddle never lowers the level", users.solvedCalls[0].level)
	}
}

func TestSolveWrongSolution(t *testing.T) {
	tests := []struct {
		name      string
		deduction *int
		wantScore int
	}{
		{name: "explicit deduction", deduction: intPtr(5), wantScore: 5},
		{name: "default deduction is half the difficulty", deduction: nil, wantScore: 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, users, riddles, events := solveFixture(t)
			riddles.riddles["riddle-1"].Deduction = tc.deduction

			result, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "sphinx")
			mustNoErr(t, err)

			if result.Solved {
				t.Fatal("Solve() accepted a wrong solution")
			}
			if result.Score != tc.wantScore {
				t.Fatalf("Solve() score = %d, want %d", result.Score, tc.wantScore)
			}
			if len(users.scoreUpdates) != 1 || users.scoreUpdates[0] != tc.wantScore {
				t.Fatalf("score updates = %v", users.scoreUpdates)
			}
			if len(users.solvedCalls) != 0 {
				t.Fatal("a wrong solution must not touch the solved history")
			}
			if len(events.solved) != 0 {
				t.Fatal("a wrong solution must not publish an event")
			}
		})
	}
}

func TestSolveRepeatedWrongSolutionDeductsEachTime(t *testing.T) {
	svc, users, _, _ := solveFixture(t)

	first, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "sphinx")
	mustNoErr(t, err)
	if first.Solved || first.Score != 7 {
		t.Fatalf("first attempt = %+v, want score 7", first)
	}

	second, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "sphinx")
	mustNoErr(t, err)
	if second.Solved || second.Score != 4 {
		t.Fatalf("second attempt = %+v, want score 4", second)
	}

	if len(users.scoreUpdates) != 2 || users.scoreUpdates[0] != 7 || users.scoreUpdates[1] != 4 {
		t.Fatalf("score updates = %v, each wrong attempt deducts on its own", users.scoreUpdates)
	}
}

func TestSolveCaseSensitivity(t *testing.T) {
	tests := []struct {
		name       string
		ignoreCase bool
		wantSolved bool
	}{
		{name: "case matters by default", ignoreCase: false, wantSolved: false},
		{name: "riddle may opt out of case", ignoreCase: true, wantSolved: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, riddles, _ := solveFixture(t)
			riddles.riddles["riddle-1"].IgnoreCase = tc.ignoreCase

			result, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "mInOtAuR")
			mustNoErr(t, err)
			if result.Solved != tc.wantSolved {
				t.Fatalf("Solve() solved = %v, want %v", result.Solved, tc.wantSolved)
			}
		})
	}
}

func TestSolveDecodesPercentEncoding(t *testing.T) {
	tests := []struct {
		name      string
		solution  string
		submitted string
	}{
		{name: "encoded space", solution: "golden thread", submitted: "golden%20thread"},
		{name: "encoded plus", solution: "a+b", submitted: "a%2Bb"},
		{name: "literal plus survives a single decode", solution: "a+b", submitted: "a+b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, riddles, _ := solveFixture(t)
			riddles.riddles["riddle-1"].Solution = tc.solution

			result, err := svc.Solve(context.Background(), "ariadne", "riddle-1", tc.submitted)
			mustNoErr(t, err)
			if !result.Solved {
				t.Fatalf("submission %q did not match solution %q", tc.submitted, tc.solution)
			}
		})
	}
}

func TestSolveRequiresPresentation(t *testing.T) {
	t0 := fixedNow()

	tests := []struct {
		name    string
		attempt *domain.RiddleAttempt
	}{
		{name: "never presented", attempt: nil},
		{name: "missing presentation time", attempt: &domain.RiddleAttempt{RiddleID: "riddle-1"}},
		{name: "different riddle presented", attempt: &domain.RiddleAttempt{RiddleID: "riddle-7", T0: &t0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, users, _, _ := solveFixture(t)
			users.users["ariadne"].CurrentAttempt = tc.attempt

			if _, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "Minotaur"); !errors.Is(err, ErrRiddleNotYetSeen) {
				t.Fatalf("Solve() error = %v, want %v", err, ErrRiddleNotYetSeen)
			}
		})
	}
}

func TestSolveAlreadySolved(t *testing.T) {
	svc, users, _, _ := solveFixture(t)
	now := fixedNow()
	users.users["ariadne"].Solved = []domain.RiddleAttempt{{RiddleID: "riddle-1", T0: &now, TSolved: &now}}

	if _, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "Minotaur"); !errors.Is(err, ErrRiddleAlreadySolved) {
		t.Fatalf("Solve() error = %v, want %v", err, ErrRiddleAlreadySolved)
	}
}

func TestSolveConcurrentDuplicate(t *testing.T) {
	svc, users, _, events := solveFixture(t)
	users.solvedConflict = true

	if _, err := svc.Solve(context.Background(), "ariadne", "riddle-1", "Minotaur"); !errors.Is(err, ErrRiddleAlreadySolved) {
		t.Fatalf("Solve() error = %v, want %v", err, ErrRiddleAlreadySolved)
	}
	if len(events.solved) != 0 {
		t.Fatal("a lost solve race must not publish an event")
	}
}

func TestSolveInaccessibleRiddleReadsAsMissing(t *testing.T) {
	svc, _, riddles, _ := solveFixture(t)
	riddles.riddles["riddle-9"] = &domain.Riddle{ID: "riddle-9", Solution: "secret"}

	if _, err := svc.Solve(context.Background(), "ariadne", "riddle-9", "secret"); !errors.Is(err, ErrRiddleNotFound) {
		t.Fatalf("Solve() error = %v, want %v", err, ErrRiddleNotFound)
	}
}
