package balancer

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/team-balancer/internal/types"
)

// referenceSearch enumerates all bitmask bipartitions with the anchor on
// side A, keeping only those that satisfy the size and spread constraints,
// and returns the minimum overall score. Independent of the candidate
// generator under test.
func referenceSearch(pool []types.PlayerRecord, gkID string, scorer *Scorer) (float64, int) {
	sorted := make([]types.PlayerRecord, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := sorted[i].Overall(), sorted[j].Overall()
		if oi != oj {
			return oi > oj
		}
		return sorted[i].ID < sorted[j].ID
	})
	buckets := skillThirds(sorted)
	anchor := anchorIndex(sorted, gkID)

	bucketOf := make(map[int]int, len(sorted))
	for b, bucket := range buckets {
		for _, idx := range bucket {
			bucketOf[idx] = b
		}
	}
	allowedTakes := [3]map[int]bool{}
	for b := 0; b < 3; b++ {
		allowedTakes[b] = make(map[int]bool)
		for _, k := range bucketTakeOptions(len(buckets[b])) {
			allowedTakes[b][k] = true
		}
	}

	n := len(sorted)
	lo, hi := n/2, (n+1)/2
	best, found := 0.0, 0
	for mask := 0; mask < 1<<n; mask++ {
		if mask&(1<<anchor) == 0 {
			continue
		}
		size := 0
		takes := [3]int{}
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				size++
				takes[bucketOf[i]]++
			}
		}
		if size < lo || size > hi {
			continue
		}
		if !allowedTakes[0][takes[0]] || !allowedTakes[1][takes[1]] || !allowedTakes[2][takes[2]] {
			continue
		}
		var sideA []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sideA = append(sideA, i)
			}
		}
		teamA, teamB := splitByIndices(sorted, sideA)
		score := scorer.Score(teamA, teamB).Overall
		if found == 0 || score < best {
			best = score
		}
		found++
	}
	return best, found
}

func TestBalanceByExhaustiveSearchTooFewPlayers(t *testing.T) {
	_, err := BalanceByExhaustiveSearch(context.Background(), draftPool(1), SearchOptions{})
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestBalanceByExhaustiveSearchPoolTooLarge(t *testing.T) {
	_, err := BalanceByExhaustiveSearch(context.Background(), draftPool(20), SearchOptions{})
	assert.ErrorIs(t, err, ErrPoolTooLarge)
}

func TestBalanceByExhaustiveSearchPartitionInvariants(t *testing.T) {
	for n := 2; n <= 12; n++ {
		t.Run(fmt.Sprintf("pool_%d", n), func(t *testing.T) {
			pool := draftPool(n)
			result, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{Workers: 2})
			require.NoError(t, err)
			assert.True(t, result.Exhaustive)
			assertValidPartition(t, pool, result.TeamPartition)
			assert.Greater(t, result.CombinationsEvaluated, int64(0))
		})
	}
}

func TestBalanceByExhaustiveSearchMatchesReference(t *testing.T) {
	for _, n := range []int{4, 6, 7, 9, 10, 12} {
		t.Run(fmt.Sprintf("pool_%d", n), func(t *testing.T) {
			pool := draftPool(n)
			result, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{Workers: 3})
			require.NoError(t, err)

			scorer := NewScorer(SearchWeights(), nil, nil, nil)
			want, count := referenceSearch(pool, "", scorer)
			require.Greater(t, count, 0)

			assert.InDelta(t, want, result.BalanceScore, 1e-9,
				"search result must match the global minimum of the reference enumeration")
			assert.Equal(t, int64(count), result.CombinationsEvaluated,
				"search must visit exactly the constraint-satisfying partitions")
		})
	}
}

func TestBalanceByExhaustiveSearchDeterministic(t *testing.T) {
	pool := draftPool(10)
	first, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{Workers: 4})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{Workers: 4})
		require.NoError(t, err)
		assert.Equal(t, first.IDsA(), again.IDsA(), "tie-break must be deterministic across runs")
		assert.InDelta(t, first.BalanceScore, again.BalanceScore, 1e-12)
	}
}

func TestBalanceByExhaustiveSearchPinsGoalkeeper(t *testing.T) {
	pool := draftPool(10)
	gk := pool[4].ID

	result, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{PermanentGKID: gk})
	require.NoError(t, err)

	inA := false
	for _, p := range result.TeamA {
		if p.ID == gk {
			inA = true
		}
	}
	assert.True(t, inA, "the permanent keeper is pinned to side A")
}

func TestBalanceByExhaustiveSearchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := BalanceByExhaustiveSearch(ctx, draftPool(14), SearchOptions{Workers: 2})
	if err != nil {
		// Cancelled before any candidate was scored.
		assert.Nil(t, result)
		return
	}
	// Best-so-far result, flagged as incomplete.
	assert.False(t, result.Exhaustive)
	assertValidPartition(t, draftPool(14), result.TeamPartition)
}

func TestSkillThirdsCoverPool(t *testing.T) {
	for n := 2; n <= 12; n++ {
		sorted := draftPool(n)
		buckets := skillThirds(sorted)
		total := 0
		next := 0
		for _, bucket := range buckets {
			for _, idx := range bucket {
				assert.Equal(t, next, idx, "buckets must cover indexes in order")
				next++
			}
			total += len(bucket)
		}
		assert.Equal(t, n, total)
	}
}

func TestCombinationsCounts(t *testing.T) {
	var count int
	combinations([]int{0, 1, 2, 3, 4}, 2, func([]int) { count++ })
	assert.Equal(t, 10, count)

	count = 0
	combinations([]int{0, 1, 2}, 0, func([]int) { count++ })
	assert.Equal(t, 1, count, "the empty subset is the only 0-subset")

	count = 0
	combinations([]int{0, 1}, 3, func([]int) { count++ })
	assert.Equal(t, 0, count)
}

func BenchmarkBalanceByExhaustiveSearch(b *testing.B) {
	for _, n := range []int{8, 12, 14} {
		b.Run(fmt.Sprintf("pool_%d", n), func(b *testing.B) {
			pool := draftPool(n)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := BalanceByExhaustiveSearch(context.Background(), pool, SearchOptions{Workers: 4})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
