package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/infra/security"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// domainErrors are expected gameplay and account failures. They are
// reported inside a 200 response with ok set to false; anything else
// is a server fault and yields a generic 500.
var domainErrors = []error{
	usecase.ErrUserNotFound,
	usecase.ErrUserHasNoLocation,
	usecase.ErrUsernameTaken,
	usecase.ErrInvalidUsername,
	usecase.ErrInvalidEmail,
	usecase.ErrWrongCredentials,
	usecase.ErrDoorwayNotAccessible,
	usecase.ErrRiddleNotFound,
	usecase.ErrRiddleNotYetSeen,
	usecase.ErrRiddleAlreadySolved,
	usecase.ErrRiddleNotSolved,
	usecase.ErrNeighborNotFound,
	usecase.ErrRoomNotFound,
	usecase.ErrRoomBehindNotFound,
	usecase.ErrSecondFactorNotPending,
	usecase.ErrCeremonyNotFound,
	usecase.ErrCannotChangeOwnRole,
	usecase.ErrRoleNotHigher,
	usecase.ErrInsufficientRights,
	security.ErrPasswordTooShort,
	security.ErrUnsafePassword,
}

// RespondWithError translates an error into the response envelope.
func RespondWithError(c *gin.Context, err error) {
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			c.JSON(http.StatusOK, Envelope{Ok: false, Message: domainErr.Error()})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Envelope{Ok: false, Message: "internal server error"})
}
