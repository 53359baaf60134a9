package domain

import "time"

// UserRegisteredEvent is emitted when a new account has been created
// and its activation PIN dispatched.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Username     string
	Email        string
	SecondFactor *SecondFactor
	RegisteredAt time.Time
}

// UserActivatedEvent is emitted when a pending account confirms its PIN
// and is placed into the entry room.
type UserActivatedEvent struct {
	EventID     string
	UserID      string
	Username    string
	EntryRoomID string
	GameID      string
	ActivatedAt time.Time
}

// RiddleSolvedEvent is emitted when a correct solution is accepted.
type RiddleSolvedEvent struct {
	EventID  string
	UserID   string
	Username string
	RiddleID string
	Level    int
	Score    int
	SolvedAt time.Time
}

// GameFinishedEvent is emitted when a user steps out of an exit room.
type GameFinishedEvent struct {
	EventID    string
	UserID     string
	Username   string
	GameID     string
	FinishedAt time.Time
}
