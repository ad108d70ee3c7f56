package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/balancer"
	"github.com/pitchside/team-balancer/internal/storage"
	"github.com/pitchside/team-balancer/internal/types"
)

// ClassifyHandler exposes pool profiling and classification
type ClassifyHandler struct {
	repo   *storage.Repository
	logger *logrus.Logger
}

func NewClassifyHandler(repo *storage.Repository, logger *logrus.Logger) *ClassifyHandler {
	return &ClassifyHandler{repo: repo, logger: logger}
}

// ClassifyRequest mirrors BalanceRequest's pool selection.
type ClassifyRequest struct {
	PlayerIDs []string             `json:"player_ids"`
	Players   []types.PlayerRecord `json:"players"`
}

// ClassifyResponse pairs the pool profile with per-player tiers.
type ClassifyResponse struct {
	Profile         types.PoolProfile                     `json:"profile"`
	Classifications map[string]types.PlayerClassification `json:"classifications"`
}

// ClassifyPool profiles the pool and assigns each player a tier
func (h *ClassifyHandler) ClassifyPool(c *gin.Context) {
	var req ClassifyRequest
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

	pool := req.Players
	if len(pool) == 0 {
		if len(req.PlayerIDs) == 0 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: "Either players or player_ids must be provided",
				Code:  "EMPTY_POOL",
			})
			return
		}
		loaded, err := h.repo.LoadPool(c.Request.Context(), req.PlayerIDs)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: "Failed to load player pool",
				Code:  "POOL_LOAD_ERROR",
				Details: map[string]string{
					"error": err.Error(),
				},
			})
			return
		}
		pool = loaded
	}

	profile, classes, err := balancer.ClassifyPool(pool)
	if err != nil {
		if err == balancer.ErrInsufficientPlayers {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error: "At least two players are required",
				Code:  "INSUFFICIENT_PLAYERS",
			})
			return
		}
		h.logger.WithError(err).Error("Classification failed")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Classification failed",
			Code:  "CLASSIFY_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, ClassifyResponse{
		Profile:         profile,
		Classifications: classes,
	})
}
