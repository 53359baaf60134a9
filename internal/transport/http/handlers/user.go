package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// UserHandler exposes registration, login, and account management
// endpoints.
type UserHandler struct {
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
	users        *usecase.UserService
}

func NewUserHandler(
	registration *usecase.RegistrationService,
	auth *usecase.AuthService,
	users *usecase.UserService,
) *UserHandler {
	return &UserHandler{registration: registration, auth: auth, users: users}
}

// Register creates a new pending account.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid registration payload"})
		return
	}

	input := usecase.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}
	if req.SecondFactor != nil {
		factor := domain.SecondFactor(strings.ToUpper(*req.SecondFactor))
		input.SecondFactor = &factor
	}

	if err := h.registration.Register(c.Request.Context(), input); err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, okEnvelope())
}

// Activate confirms a pending account with its PIN.
func (h *UserHandler) Activate(c *gin.Context) {
	var req ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid activation payload"})
		return
	}

	result, err := h.registration.Activate(c.Request.Context(), strings.TrimSpace(req.Username), req.Pin)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	resp := ActivationResponse{
		Envelope:     okEnvelope(),
		Token:        result.Token,
		RecoveryKeys: result.RecoveryKeys,
		TOTP:         result.TOTPProvisioningURL,
	}
	if result.EntryRoom != nil {
		room := newRoomDTO(result.EntryRoom)
		resp.Room = &room
	}
	c.JSON(http.StatusOK, resp)
}

// Login authenticates with username and password, optionally with an
// inline TOTP code.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid login payload"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password, req.TOTP)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	if !result.Authenticated {
		resp := LoginResponse{
			Envelope: Envelope{Ok: false, Message: "second factor required"},
		}
		for _, factor := range result.PendingFactors {
			resp.Factors = append(resp.Factors, string(factor))
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Envelope: okEnvelope(), Token: result.Token})
}

// LoginTOTP completes a pending login with a TOTP code.
func (h *UserHandler) LoginTOTP(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	var req TOTPLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid totp payload"})
		return
	}

	result, err := h.auth.CompleteTOTP(c.Request.Context(), username, strings.TrimSpace(req.TOTP))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Envelope: okEnvelope(), Token: result.Token})
}

// EnableTOTP sets up a fresh TOTP secret for the user.
func (h *UserHandler) EnableTOTP(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	url, err := h.users.EnableTOTP(c.Request.Context(), username)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TOTPEnableResponse{Envelope: okEnvelope(), ProvisioningURL: url})
}

// DisableTOTP removes the user's TOTP secret.
func (h *UserHandler) DisableTOTP(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	if err := h.users.DisableTOTP(c.Request.Context(), username); err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, okEnvelope())
}

// ChangePassword replaces the user's password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid password payload"})
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), username, req.Password); err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, okEnvelope())
}

// Whoami returns the authenticated user's own record.
func (h *UserHandler) Whoami(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	user, err := h.users.Whoami(c.Request.Context(), username)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// Auth confirms that the presented token is valid. The middleware has
// already done the work by the time this runs.
func (h *UserHandler) Auth(c *gin.Context) {
	c.JSON(http.StatusOK, okEnvelope())
}

// Promote raises another user's role. Admin only.
func (h *UserHandler) Promote(c *gin.Context) {
	actor, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}
	actorRole, _ := middleware.UserRole(c)

	target := c.Param("user")
	roleName := c.Param("role")

	if err := h.users.Promote(c.Request.Context(), actor, actorRole, target, roleName); err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PromoteResponse{
		Envelope: okEnvelope(),
		Username: target,
		Role:     roleName,
	})
}
