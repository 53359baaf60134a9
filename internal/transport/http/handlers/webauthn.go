package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// WebauthnHandler exposes the passkey registration and login
// ceremonies.
type WebauthnHandler struct {
	passkeys *usecase.PasskeyService
}

func NewWebauthnHandler(passkeys *usecase.PasskeyService) *WebauthnHandler {
	return &WebauthnHandler{passkeys: passkeys}
}

// RegisterStart begins passkey enrollment for the authenticated user.
func (h *WebauthnHandler) RegisterStart(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	creation, err := h.passkeys.BeginRegistration(c.Request.Context(), username)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, creation)
}

// RegisterFinish completes passkey enrollment with the attestation
// response.
func (h *WebauthnHandler) RegisterFinish(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid attestation payload"})
		return
	}

	if err := h.passkeys.FinishRegistration(c.Request.Context(), username, body); err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, okEnvelope())
}

// LoginStart begins a passkey login ceremony for the named user.
func (h *WebauthnHandler) LoginStart(c *gin.Context) {
	assertion, err := h.passkeys.BeginLogin(c.Request.Context(), c.Param("username"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, assertion)
}

// LoginFinish validates the assertion response and issues a token.
func (h *WebauthnHandler) LoginFinish(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid assertion payload"})
		return
	}

	result, err := h.passkeys.FinishLogin(c.Request.Context(), c.Param("username"), body)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Envelope: okEnvelope(), Token: result.Token})
}
