package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchside/team-balancer/internal/storage"
	"github.com/pitchside/team-balancer/pkg/cache"
)

// HealthHandler reports service liveness and dependency readiness
type HealthHandler struct {
	db    *storage.DB
	cache *cache.BalanceCacheService
}

func NewHealthHandler(db *storage.DB, cacheSvc *cache.BalanceCacheService) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheSvc}
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "team-balancer",
		"timestamp": time.Now().UTC(),
	})
}

// Ready checks database and cache connectivity
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.GetStatus(c.Request.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"checks": checks,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}
