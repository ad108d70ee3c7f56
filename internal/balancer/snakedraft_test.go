package balancer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/team-balancer/internal/types"
)

func draftPool(n int) []types.PlayerRecord {
	pool := make([]types.PlayerRecord, n)
	for i := 0; i < n; i++ {
		pool[i] = types.PlayerRecord{
			ID:      fmt.Sprintf("p%02d", i),
			Name:    fmt.Sprintf("Player %d", i),
			Attack:  float64(3 + (i*7)%6),
			Defense: float64(3 + (i*5)%6),
			GameIQ:  float64(3 + (i*3)%6),
		}
	}
	return pool
}

func assertValidPartition(t *testing.T, pool []types.PlayerRecord, partition types.TeamPartition) {
	t.Helper()

	diff := len(partition.TeamA) - len(partition.TeamB)
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 1, "team sizes must differ by at most one")

	seen := make(map[string]int)
	for _, p := range partition.TeamA {
		seen[p.ID]++
	}
	for _, p := range partition.TeamB {
		seen[p.ID]++
	}
	assert.Len(t, seen, len(pool), "every pool player appears exactly once")
	for id, count := range seen {
		assert.Equal(t, 1, count, "player %s duplicated", id)
	}
}

func TestBalanceBySnakeDraftTooFewPlayers(t *testing.T) {
	_, err := BalanceBySnakeDraft(draftPool(1), DraftOptions{})
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestBalanceBySnakeDraftPartitionInvariants(t *testing.T) {
	for n := 2; n <= 14; n++ {
		t.Run(fmt.Sprintf("pool_%d", n), func(t *testing.T) {
			pool := draftPool(n)
			result, err := BalanceBySnakeDraft(pool, DraftOptions{})
			require.NoError(t, err)
			assertValidPartition(t, pool, result.TeamPartition)
		})
	}
}

func TestBalanceBySnakeDraftTiersAreContiguous(t *testing.T) {
	pool := draftPool(12)
	result, err := BalanceBySnakeDraft(pool, DraftOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Tiers)
	total := 0
	for i, tier := range result.Tiers {
		assert.Equal(t, i, tier.Number)
		assert.NotEmpty(t, tier.PlayerIDs)
		assert.GreaterOrEqual(t, tier.MaxRating, tier.MinRating)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Tiers[i-1].MinRating, tier.MaxRating,
				"tier rating bands must descend")
		}
		total += len(tier.PlayerIDs)
	}
	assert.Equal(t, len(pool), total)
}

func TestBalanceBySnakeDraftOptimizationNeverWorsens(t *testing.T) {
	pool := draftPool(10)
	result, err := BalanceBySnakeDraft(pool, DraftOptions{})
	require.NoError(t, err)

	assert.LessOrEqual(t, result.OptimizedScore, result.InitialScore,
		"local search must be monotonically non-increasing")
	if result.WasOptimized {
		assert.Greater(t, result.SwapCount, 0)
	} else {
		assert.Equal(t, 0, result.SwapCount)
	}
}

func TestBalanceBySnakeDraftPinsGoalkeepers(t *testing.T) {
	pool := draftPool(10)
	pool[2].IsPermanentGK = true
	pool[7].IsPermanentGK = true

	result, err := BalanceBySnakeDraft(pool, DraftOptions{
		PermanentGKIDs: []string{pool[2].ID, pool[7].ID},
	})
	require.NoError(t, err)
	assertValidPartition(t, pool, result.TeamPartition)

	sideOf := func(id string) string {
		for _, p := range result.TeamA {
			if p.ID == id {
				return "A"
			}
		}
		return "B"
	}
	assert.NotEqual(t, sideOf(pool[2].ID), sideOf(pool[7].ID),
		"permanent keepers must land on opposite sides")
}

func TestDraftConfidenceBands(t *testing.T) {
	reliable := types.PlayerRecord{ID: "r", Stats: statLine(20, 0.5, 0.5, 0, 0)}
	fresh := types.PlayerRecord{ID: "f"}

	pool := []types.PlayerRecord{reliable, reliable, reliable, fresh}
	assert.Equal(t, types.ConfidenceHigh, draftConfidence(pool))

	pool = []types.PlayerRecord{reliable, reliable, fresh, fresh}
	assert.Equal(t, types.ConfidenceMedium, draftConfidence(pool))

	pool = []types.PlayerRecord{reliable, fresh, fresh, fresh}
	assert.Equal(t, types.ConfidenceLow, draftConfidence(pool))
}

func TestCompositeRatingClampsAdjustments(t *testing.T) {
	hot := types.PlayerRecord{
		ID: "hot", Attack: 6, Defense: 6, GameIQ: 6,
		Stats: statLine(30, 0.5, 1.0, 0, 5),
	}
	base := hot
	base.Stats = nil

	diff := compositeRating(hot) - compositeRating(base)
	assert.LessOrEqual(t, diff, perfAdjustLimit+momentumLimit+1e-9)
	assert.Greater(t, diff, 0.0)
}

func BenchmarkBalanceBySnakeDraft_Small(b *testing.B) {
	pool := draftPool(10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := BalanceBySnakeDraft(pool, DraftOptions{})
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBalanceBySnakeDraft_Large(b *testing.B) {
	pool := draftPool(22)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := BalanceBySnakeDraft(pool, DraftOptions{})
		if err != nil {
			b.Fatal(err)
		}
	}
}
