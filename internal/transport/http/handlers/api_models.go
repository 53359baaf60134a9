package handlers

import (
	"encoding/base64"
	"time"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// Envelope is the common response wrapper. Domain failures are
// reported with Ok set to false and a human readable message.
type Envelope struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func okEnvelope() Envelope {
	return Envelope{Ok: true}
}

type RegistrationRequest struct {
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	SecondFactor *string `json:"second_factor"`
}

type ActivationRequest struct {
	Username string `json:"username"`
	Pin      int    `json:"pin"`
}

type ActivationResponse struct {
	Envelope
	Token        string   `json:"jwt"`
	RecoveryKeys []string `json:"recovery_keys"`
	TOTP         *string  `json:"totp,omitempty"`
	Room         *RoomDTO `json:"room,omitempty"`
}

type LoginRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	TOTP     *string `json:"totp"`
}

type LoginResponse struct {
	Envelope
	Token   string   `json:"jwt,omitempty"`
	Factors []string `json:"factors,omitempty"`
}

type TOTPLoginRequest struct {
	TOTP string `json:"totp"`
}

type TOTPEnableResponse struct {
	Envelope
	ProvisioningURL string `json:"totp"`
}

type PasswordChangeRequest struct {
	Password string `json:"password"`
}

type PromoteResponse struct {
	Envelope
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserResponse struct {
	Envelope
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Level         int        `json:"level"`
	Score         int        `json:"score"`
	InRoom        *string    `json:"in_room,omitempty"`
	SolvedRiddles []string   `json:"solved_riddles"`
	RoomsEntered  []string   `json:"rooms_entered"`
	Finished      []FinishDTO `json:"finished,omitempty"`
	SecondFactors []string   `json:"second_factors,omitempty"`
	Registered    *time.Time `json:"registered,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

type FinishDTO struct {
	GameID    string    `json:"game_id"`
	Timestamp time.Time `json:"timestamp"`
}

func newUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		Envelope:      okEnvelope(),
		Username:      user.Username,
		Email:         user.Email,
		Role:          string(user.Role),
		Level:         user.Level,
		Score:         user.Score,
		InRoom:        user.InRoom,
		SolvedRiddles: make([]string, 0, len(user.Solved)),
		RoomsEntered:  user.RoomsEntered,
		Registered:    user.Registered,
		LastLogin:     user.LastLogin,
	}
	for _, attempt := range user.Solved {
		resp.SolvedRiddles = append(resp.SolvedRiddles, attempt.RiddleID)
	}
	for _, finish := range user.Finished {
		resp.Finished = append(resp.Finished, FinishDTO(finish))
	}
	for _, factor := range user.ConfiguredSecondFactors() {
		resp.SecondFactors = append(resp.SecondFactors, string(factor))
	}
	return resp
}

type FileVariantDTO struct {
	Name  string `json:"name"`
	Scale int    `json:"scale"`
	Data  string `json:"data"`
}

type RiddleFileDTO struct {
	Name     string           `json:"name"`
	MimeType string           `json:"mime_type"`
	Width    *int             `json:"width,omitempty"`
	Height   *int             `json:"height,omitempty"`
	Scale    *int             `json:"scale,omitempty"`
	Data     string           `json:"data"`
	Variants []FileVariantDTO `json:"variants,omitempty"`
}

type RiddleResponse struct {
	Envelope
	ID         string          `json:"id"`
	Level      int             `json:"level"`
	Difficulty int             `json:"difficulty"`
	Deduction  int             `json:"deduction"`
	IgnoreCase bool            `json:"ignore_case"`
	Task       *string         `json:"task,omitempty"`
	Credits    *string         `json:"credits,omitempty"`
	Files      []RiddleFileDTO `json:"files,omitempty"`
}

func newRiddleResponse(view *usecase.RiddleView) RiddleResponse {
	resp := RiddleResponse{
		Envelope:   okEnvelope(),
		ID:         view.ID,
		Level:      view.Level,
		Difficulty: view.Difficulty,
		Deduction:  view.Deduction,
		IgnoreCase: view.IgnoreCase,
		Task:       view.Task,
		Credits:    view.Credits,
	}
	for _, asset := range view.Files {
		dto := RiddleFileDTO{
			Name:     asset.File.Name,
			MimeType: asset.File.MimeType,
			Width:    asset.File.Width,
			Height:   asset.File.Height,
			Scale:    asset.File.Scale,
			Data:     base64.StdEncoding.EncodeToString(asset.Data),
		}
		for _, variant := range asset.Variants {
			dto.Variants = append(dto.Variants, FileVariantDTO{
				Name:  variant.Variant.Name,
				Scale: variant.Variant.Scale,
				Data:  base64.StdEncoding.EncodeToString(variant.Data),
			})
		}
		resp.Files = append(resp.Files, dto)
	}
	return resp
}

type DebriefingResponse struct {
	Envelope
	Debriefing *string `json:"debriefing,omitempty"`
}

type SolveRequest struct {
	Solution string `json:"solution"`
}

type SolveResponse struct {
	Envelope
	Solved bool `json:"solved"`
	Score  int  `json:"score"`
	Level  int  `json:"level"`
}

type DoorwayDTO struct {
	Direction string `json:"direction"`
	RiddleID  string `json:"riddle_id"`
	Level     int    `json:"level,omitempty"`
}

type RoomDTO struct {
	ID        string       `json:"id"`
	Number    int          `json:"number"`
	Coords    *string      `json:"coords,omitempty"`
	GameID    string       `json:"game_id"`
	Neighbors []DoorwayDTO `json:"neighbors"`
	Entry     bool         `json:"entry"`
	Exit      bool         `json:"exit"`
}

func newRoomDTO(room *domain.Room) RoomDTO {
	dto := RoomDTO{
		ID:        room.ID,
		Number:    room.Number,
		Coords:    room.Coords,
		GameID:    room.GameID,
		Neighbors: make([]DoorwayDTO, 0, len(room.Neighbors)),
		Entry:     room.Entry,
		Exit:      room.Exit,
	}
	for _, doorway := range room.Neighbors {
		dto.Neighbors = append(dto.Neighbors, DoorwayDTO(doorway))
	}
	return dto
}

type MoveResponse struct {
	Envelope
	Room     RoomDTO `json:"room"`
	Finished bool    `json:"finished"`
}

type StatsResponse struct {
	Envelope
	NumRooms   int `json:"num_rooms"`
	NumRiddles int `json:"num_riddles"`
	MaxScore   int `json:"max_score"`
}

type AdminRiddleResponse struct {
	Envelope
	ID         string  `json:"id"`
	Level      int     `json:"level"`
	Difficulty int     `json:"difficulty"`
	Deduction  *int    `json:"deduction,omitempty"`
	IgnoreCase bool    `json:"ignore_case"`
	Solution   string  `json:"solution"`
	Task       *string `json:"task,omitempty"`
	Debriefing *string `json:"debriefing,omitempty"`
	Credits    *string `json:"credits,omitempty"`
}
