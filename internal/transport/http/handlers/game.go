package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// GameHandler exposes traversal and game statistics endpoints.
type GameHandler struct {
	traversal *usecase.TraversalService
	stats     *usecase.StatsService
}

func NewGameHandler(traversal *usecase.TraversalService, stats *usecase.StatsService) *GameHandler {
	return &GameHandler{traversal: traversal, stats: stats}
}

// Go moves the user through the doorway in the given direction.
func (h *GameHandler) Go(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	result, err := h.traversal.Go(c.Request.Context(), username, c.Param("direction"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MoveResponse{
		Envelope: okEnvelope(),
		Room:     newRoomDTO(result.Room),
		Finished: result.Finished,
	})
}

// Stats reports the size figures of a game.
func (h *GameHandler) Stats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Envelope:   okEnvelope(),
		NumRooms:   stats.NumRooms,
		NumRiddles: stats.NumRiddles,
		MaxScore:   stats.MaxScore,
	})
}
