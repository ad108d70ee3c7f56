package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/balancer"
	"github.com/pitchside/team-balancer/internal/storage"
	"github.com/pitchside/team-balancer/internal/types"
	"github.com/pitchside/team-balancer/internal/websocket"
	"github.com/pitchside/team-balancer/pkg/cache"
	"github.com/pitchside/team-balancer/pkg/config"
	"github.com/pitchside/team-balancer/pkg/logger"
)

// BalanceHandler handles team-balancing endpoints
type BalanceHandler struct {
	repo   *storage.Repository
	cache  *cache.BalanceCacheService
	wsHub  *websocket.Hub
	config *config.Config
	logger *logrus.Logger
}

func NewBalanceHandler(
	repo *storage.Repository,
	cacheSvc *cache.BalanceCacheService,
	wsHub *websocket.Hub,
	cfg *config.Config,
	logger *logrus.Logger,
) *BalanceHandler {
	return &BalanceHandler{
		repo:   repo,
		cache:  cacheSvc,
		wsHub:  wsHub,
		config: cfg,
		logger: logger,
	}
}

// BalanceRequest selects the pool for either balancing strategy. Inline
// players take precedence over ids so callers without a database row can
// still balance.
type BalanceRequest struct {
	PlayerIDs      []string             `json:"player_ids"`
	Players        []types.PlayerRecord `json:"players"`
	PermanentGKIDs []string             `json:"permanent_gk_ids"`
	SkipCache      bool                 `json:"skip_cache"`
}

func (h *BalanceHandler) resolvePool(c *gin.Context, req *BalanceRequest) ([]types.PlayerRecord, bool) {
	if len(req.Players) > 0 {
		return req.Players, true
	}
	if len(req.PlayerIDs) == 0 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Either players or player_ids must be provided",
			Code:  "EMPTY_POOL",
		})
		return nil, false
	}
	pool, err := h.repo.LoadPool(c.Request.Context(), req.PlayerIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Failed to load player pool",
			Code:  "POOL_LOAD_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
		return nil, false
	}
	return pool, true
}

func (h *BalanceHandler) loadLookups(ctx context.Context, pool []types.PlayerRecord) (types.ChemistryLookup, types.RivalryLookup, types.TrioLookup) {
	ids := make([]string, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	chem, err := h.repo.LoadChemistry(ctx, ids)
	if err != nil {
		h.logger.WithError(err).Warn("Chemistry lookup unavailable, balancing without it")
		chem = nil
	}
	rivalry, err := h.repo.LoadRivalries(ctx, ids)
	if err != nil {
		h.logger.WithError(err).Warn("Rivalry lookup unavailable, balancing without it")
		rivalry = nil
	}
	trio, err := h.repo.LoadTrios(ctx, ids)
	if err != nil {
		h.logger.WithError(err).Warn("Trio lookup unavailable, balancing without it")
		trio = nil
	}
	return chem, rivalry, trio
}

// BalanceByDraft runs tier-based snake-draft balancing
func (h *BalanceHandler) BalanceByDraft(c *gin.Context) {
	var req BalanceRequest
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

	pool, ok := h.resolvePool(c, &req)
	if !ok {
		return
	}

	cacheKey := cache.PoolKey(poolIDs(pool))
	if !req.SkipCache {
		if cached, err := h.cache.GetDraftResult(c.Request.Context(), cacheKey); err == nil && cached != nil {
			h.logger.WithField("cache_key", cacheKey).Info("Returning cached draft result")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	chem, _, _ := h.loadLookups(c.Request.Context(), pool)

	runID := uuid.New().String()
	c.Header("X-Balance-Run-ID", runID)

	result, err := balancer.BalanceBySnakeDraft(pool, balancer.DraftOptions{
		PermanentGKIDs: req.PermanentGKIDs,
		Chemistry:      chem,
		SwapLimit:      h.config.DraftSwapLimit,
	})
	if err != nil {
		h.respondBalanceError(c, err)
		return
	}

	logger.WithPoolContext(runID, len(pool)).WithFields(logrus.Fields{
		"score":      result.OptimizedScore,
		"swaps":      result.SwapCount,
		"confidence": result.Confidence,
	}).Info("Draft balance completed")

	if err := h.cache.SetDraftResult(c.Request.Context(), cacheKey, result, h.config.CacheExpiration); err != nil {
		h.logger.WithError(err).Warn("Failed to cache draft result")
	}
	h.persistRun(c.Request.Context(), runID, "snake_draft", result.TeamPartition, result.OptimizedScore, 0, 0)

	c.JSON(http.StatusOK, result)
}

// BalanceByOptimal runs exhaustive constrained search with progress
// streaming over the websocket hub
func (h *BalanceHandler) BalanceByOptimal(c *gin.Context) {
	var req BalanceRequest
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

	pool, ok := h.resolvePool(c, &req)
	if !ok {
		return
	}

	cacheKey := cache.PoolKey(poolIDs(pool))
	if !req.SkipCache {
		if cached, err := h.cache.GetSearchResult(c.Request.Context(), cacheKey); err == nil && cached != nil {
			h.logger.WithField("cache_key", cacheKey).Info("Returning cached search result")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	chem, rivalry, trio := h.loadLookups(c.Request.Context(), pool)

	runID := uuid.New().String()
	c.Header("X-Balance-Run-ID", runID)
	log := logger.WithRequestContext(c.GetHeader("X-Request-ID"), runID)

	gkID := ""
	if len(req.PermanentGKIDs) > 0 {
		gkID = req.PermanentGKIDs[0]
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.BruteForceTimeout)
	defer cancel()

	start := time.Now()
	result, err := balancer.BalanceByExhaustiveSearch(ctx, pool, balancer.SearchOptions{
		PermanentGKID: gkID,
		Chemistry:     chem,
		Rivalry:       rivalry,
		Trio:          trio,
		Workers:       h.config.BruteForceWorkers,
		MaxPool:       h.config.MaxBruteForcePool,
		Progress: func(evaluated int64, progress float64) {
			h.wsHub.BroadcastToRun(runID, types.ProgressUpdate{
				RunID:     runID,
				Strategy:  "exhaustive",
				Progress:  progress,
				Evaluated: evaluated,
				Message:   "Evaluating partitions",
				Timestamp: time.Now(),
			})
		},
	})
	if err != nil {
		h.respondBalanceError(c, err)
		return
	}

	h.wsHub.BroadcastToRun(runID, types.ProgressUpdate{
		RunID:     runID,
		Strategy:  "exhaustive",
		Progress:  1.0,
		Evaluated: result.CombinationsEvaluated,
		Message:   "Search complete",
		Timestamp: time.Now(),
	})

	log.WithFields(logrus.Fields{
		"pool_size":    len(pool),
		"combinations": result.CombinationsEvaluated,
		"exhaustive":   result.Exhaustive,
		"elapsed":      time.Since(start),
	}).Info("Exhaustive balance completed")

	if err := h.cache.SetSearchResult(c.Request.Context(), cacheKey, result, h.config.CacheExpiration); err != nil {
		h.logger.WithError(err).Warn("Failed to cache search result")
	}
	h.persistRun(c.Request.Context(), runID, "exhaustive", result.TeamPartition, result.BalanceScore, result.CombinationsEvaluated, result.ComputeTimeMs)

	c.JSON(http.StatusOK, result)
}

// RecentRuns lists persisted balancing runs
func (h *BalanceHandler) RecentRuns(c *gin.Context) {
	runs, err := h.repo.RecentRuns(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Failed to load balance runs",
			Code:  "HISTORY_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{
		Message: "Recent balance runs",
		Data:    runs,
	})
}

func (h *BalanceHandler) persistRun(ctx context.Context, runID, strategy string, partition types.TeamPartition, score float64, combos, computeMs int64) {
	if h.repo == nil {
		return
	}
	if err := h.repo.SaveBalanceRun(ctx, runID, strategy, partition, score, combos, computeMs); err != nil {
		h.logger.WithError(err).Warn("Failed to persist balance run")
	}
}

func (h *BalanceHandler) respondBalanceError(c *gin.Context, err error) {
	switch err {
	case balancer.ErrInsufficientPlayers:
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "At least two players are required",
			Code:  "INSUFFICIENT_PLAYERS",
		})
	case balancer.ErrPoolTooLarge:
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "Pool exceeds the exhaustive search limit",
			Code:  "POOL_TOO_LARGE",
		})
	default:
		h.logger.WithError(err).Error("Balancing failed")
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Balancing failed",
			Code:  "BALANCE_ERROR",
			Details: map[string]string{
				"error": err.Error(),
			},
		})
	}
}

func poolIDs(pool []types.PlayerRecord) []string {
	ids := make([]string, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	return ids
}
