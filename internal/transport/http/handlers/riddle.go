package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// RiddleHandler exposes riddle presentation and solving endpoints.
type RiddleHandler struct {
	access *usecase.AccessService
	solver *usecase.SolveService
}

func NewRiddleHandler(access *usecase.AccessService, solver *usecase.SolveService) *RiddleHandler {
	return &RiddleHandler{access: access, solver: solver}
}

// Get presents a riddle to the user and starts the attempt timer.
func (h *RiddleHandler) Get(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	view, err := h.access.GetRiddle(c.Request.Context(), username, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRiddleResponse(view))
}

// Debriefing returns the debriefing text of an already solved riddle.
func (h *RiddleHandler) Debriefing(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	debriefing, err := h.access.GetDebriefing(c.Request.Context(), username, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, DebriefingResponse{Envelope: okEnvelope(), Debriefing: debriefing})
}

// Solve judges a solution attempt. The submitted solution arrives
// percent-encoded in the request body.
func (h *RiddleHandler) Solve(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Envelope{Ok: false, Message: "authentication required"})
		return
	}

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid solution payload"})
		return
	}

	result, err := h.solver.Solve(c.Request.Context(), username, c.Param("id"), req.Solution)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	resp := SolveResponse{
		Envelope: okEnvelope(),
		Solved:   result.Solved,
		Score:    result.Score,
		Level:    result.Level,
	}
	if !result.Solved {
		resp.Message = "that is not the answer"
	}
	c.JSON(http.StatusOK, resp)
}

// ByLevel returns the full riddle for a level, solution included.
// Restricted to admins by the route setup.
func (h *RiddleHandler) ByLevel(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Envelope{Ok: false, Message: "invalid level"})
		return
	}

	riddle, err := h.access.GetRiddleByLevel(c.Request.Context(), level)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AdminRiddleResponse{
		Envelope:   okEnvelope(),
		ID:         riddle.ID,
		Level:      riddle.Level,
		Difficulty: riddle.Difficulty,
		Deduction:  riddle.Deduction,
		IgnoreCase: riddle.IgnoreCase,
		Solution:   riddle.Solution,
		Task:       riddle.Task,
		Debriefing: riddle.Debriefing,
		Credits:    riddle.Credits,
	})
}
