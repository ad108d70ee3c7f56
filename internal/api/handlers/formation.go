package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/balancer"
	"github.com/pitchside/team-balancer/internal/formation"
	"github.com/pitchside/team-balancer/internal/types"
)

// FormationHandler exposes formation suggestion and position assignment
type FormationHandler struct {
	logger *logrus.Logger
}

func NewFormationHandler(logger *logrus.Logger) *FormationHandler {
	return &FormationHandler{logger: logger}
}

// FormationRequest carries both sides of an already-balanced partition.
type FormationRequest struct {
	TeamA []types.PlayerRecord `json:"team_a" binding:"required"`
	TeamB []types.PlayerRecord `json:"team_b" binding:"required"`
	// AssignPositions also resolves per-player positions when true.
	AssignPositions bool `json:"assign_positions"`
}

// FormationResponse is one side's suggestion plus optional assignments.
type FormationResponse struct {
	Suggestion  *formation.FormationSuggestion `json:"suggestion"`
	Assignments *formation.AssignmentResult    `json:"assignments,omitempty"`
}

// SuggestFormations picks a template per team and optionally assigns
// positions
func (h *FormationHandler) SuggestFormations(c *gin.Context) {
	var req FormationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return
	}

	pool := append(append([]types.PlayerRecord{}, req.TeamA...), req.TeamB...)
	sa, sb, notes, err := formation.SuggestFormations(req.TeamA, req.TeamB, pool)
	if err != nil {
		if err == balancer.ErrInsufficientPlayers {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: "Each team needs at least two players",
				Code:  "INSUFFICIENT_PLAYERS",
			})
			return
		}
		h.logger.WithError(err).Error("Formation suggestion failed")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Formation suggestion failed",
			Code:  "FORMATION_ERROR",
		})
		return
	}

	respA := FormationResponse{Suggestion: sa}
	respB := FormationResponse{Suggestion: sb}

	if req.AssignPositions {
		if assigned, err := formation.AssignPositions(req.TeamA, pool, sa.Template); err == nil {
			respA.Assignments = assigned
		} else {
			h.logger.WithError(err).Warn("Position assignment failed for team A")
		}
		if assigned, err := formation.AssignPositions(req.TeamB, pool, sb.Template); err == nil {
			respB.Assignments = assigned
		} else {
			h.logger.WithError(err).Warn("Position assignment failed for team B")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"team_a": respA,
		"team_b": respB,
		"notes":  notes,
	})
}
