package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/types"
)

// BalanceCacheService caches balancing results keyed by the pool identity
// and strategy, so re-running the same roster skips the search entirely.
type BalanceCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewBalanceCacheService(client *redis.Client, logger *logrus.Logger) *BalanceCacheService {
	return &BalanceCacheService{
		client: client,
		logger: logger,
	}
}

// PoolKey derives a stable cache key from the player ids. Order does not
// matter; the same roster always hashes the same.
func PoolKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:16])
}

// SetDraftResult stores a snake-draft result in cache.
func (c *BalanceCacheService) SetDraftResult(ctx context.Context, key string, result *types.TierDraftResult, expiration time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal draft result: %w", err)
	}

	fullKey := fmt.Sprintf("balance:draft:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set draft result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"score":      result.OptimizedScore,
	}).Debug("Cached draft result")

	return nil
}

// GetDraftResult retrieves a snake-draft result from cache.
func (c *BalanceCacheService) GetDraftResult(ctx context.Context, key string) (*types.TierDraftResult, error) {
	fullKey := fmt.Sprintf("balance:draft:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft result from cache: %w", err)
	}

	var result types.TierDraftResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key": fullKey,
		"score":     result.OptimizedScore,
	}).Debug("Retrieved draft result from cache")

	return &result, nil
}

// SetSearchResult stores an exhaustive-search result. Non-exhaustive
// results are never cached; a retry with more budget should recompute.
func (c *BalanceCacheService) SetSearchResult(ctx context.Context, key string, result *types.BruteForceResult, expiration time.Duration) error {
	if !result.Exhaustive {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal search result: %w", err)
	}

	fullKey := fmt.Sprintf("balance:search:%s", key)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set search result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":    fullKey,
		"expiration":   expiration,
		"score":        result.BalanceScore,
		"combinations": result.CombinationsEvaluated,
	}).Debug("Cached search result")

	return nil
}

// GetSearchResult retrieves an exhaustive-search result from cache.
func (c *BalanceCacheService) GetSearchResult(ctx context.Context, key string) (*types.BruteForceResult, error) {
	fullKey := fmt.Sprintf("balance:search:%s", key)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search result from cache: %w", err)
	}

	var result types.BruteForceResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search result: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key": fullKey,
		"score":     result.BalanceScore,
	}).Debug("Retrieved search result from cache")

	return &result, nil
}

// InvalidatePool drops both strategy entries for a roster, used when a
// player's ratings change.
func (c *BalanceCacheService) InvalidatePool(ctx context.Context, key string) error {
	keys := []string{
		fmt.Sprintf("balance:draft:%s", key),
		fmt.Sprintf("balance:search:%s", key),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached results: %w", err)
	}
	return nil
}

// GetStatus reports cache connectivity for health checks.
func (c *BalanceCacheService) GetStatus(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
