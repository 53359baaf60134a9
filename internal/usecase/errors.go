package usecase

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserHasNoLocation   = errors.New("user is not in any room")
	ErrUsernameTaken       = errors.New("username or email address already taken")
	ErrInvalidUsername     = errors.New("username contains invalid characters")
	ErrInvalidEmail        = errors.New("email address is invalid")
	ErrWrongCredentials    = errors.New("wrong credentials")
	ErrSecondFactorPending = errors.New("second factor required")

	ErrDoorwayNotAccessible = errors.New("doorway not accessible")
	ErrRiddleNotFound       = errors.New("riddle not found")
	ErrRiddleNotYetSeen     = errors.New("riddle has not been presented to the user yet")
	ErrRiddleAlreadySolved  = errors.New("riddle already solved")
	ErrRiddleNotSolved      = errors.New("riddle has not been solved yet")
	ErrNeighborNotFound     = errors.New("no doorway in that direction")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomBehindNotFound   = errors.New("room behind doorway not found")

	ErrSecondFactorNotPending = errors.New("no second factor verification is pending")
	ErrCeremonyNotFound       = errors.New("no webauthn ceremony in progress")

	ErrCannotChangeOwnRole = errors.New("cannot change own role")
	ErrRoleNotHigher       = errors.New("new role must rank above the current one")
	ErrInsufficientRights  = errors.New("insufficient rights")
)
