package balancer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/types"
	"github.com/pitchside/team-balancer/pkg/logger"
)

// SearchOptions configures exhaustive constrained balancing.
type SearchOptions struct {
	PermanentGKID string
	Chemistry     types.ChemistryLookup
	Rivalry       types.RivalryLookup
	Trio          types.TrioLookup
	// Workers sets the evaluation fan-out. Zero means single worker.
	Workers int
	// MaxPool overrides DefaultMaxBruteForcePool when positive.
	MaxPool int
	// Progress, when set, receives periodic evaluation counts.
	Progress func(evaluated int64, progress float64)
}

// DefaultMaxBruteForcePool bounds exhaustive enumeration; beyond it the
// combination count makes the search impractical.
const DefaultMaxBruteForcePool = 18

const progressInterval = 128

// BalanceByExhaustiveSearch enumerates every bipartition that satisfies the
// spread constraint (both sides receive an equal share of the top, middle,
// and bottom skill thirds) and returns the global minimum of the balance
// score. Candidates are generated directly from the three skill-third
// buckets rather than filtered from the full subset space.
//
// Cancelling ctx stops enumeration and returns the best partition found so
// far with Exhaustive=false; callers treat that as a soft timeout.
func BalanceByExhaustiveSearch(ctx context.Context, pool []types.PlayerRecord, opts SearchOptions) (*types.BruteForceResult, error) {
	if len(pool) < 2 {
		return nil, ErrInsufficientPlayers
	}
	maxPool := opts.MaxPool
	if maxPool <= 0 {
		maxPool = DefaultMaxBruteForcePool
	}
	if len(pool) > maxPool {
		return nil, ErrPoolTooLarge
	}

	runID := uuid.New().String()
	log := logger.WithBalanceContext(runID, "exhaustive")
	start := time.Now()

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
	anchor := anchorIndex(sorted, opts.PermanentGKID)

	log.WithFields(logrus.Fields{
		"pool_size": len(pool),
		"top":       len(buckets[0]),
		"middle":    len(buckets[1]),
		"bottom":    len(buckets[2]),
		"anchor_id": sorted[anchor].ID,
	}).Info("Starting exhaustive search")

	scorer := NewScorer(SearchWeights(), opts.Chemistry, opts.Rivalry, opts.Trio)

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	candidates := make(chan []int, 64)
	exhaustive := generateCandidates(ctx, sorted, buckets, anchor, candidates)

	var evaluated int64
	total := totalCombinations(buckets, anchor, len(sorted))

	// Each worker keeps its own running minimum; the global minimum is
	// picked in a single reduction afterwards.
	type localBest struct {
		score     types.ScoreBreakdown
		partition types.TeamPartition
		key       string
		found     bool
	}
	results := make([]localBest, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			best := &results[slot]
			for sideA := range candidates {
				teamA, teamB := splitByIndices(sorted, sideA)
				breakdown := scorer.Score(teamA, teamB)
				n := atomic.AddInt64(&evaluated, 1)
				if opts.Progress != nil && n%progressInterval == 0 && total > 0 {
					opts.Progress(n, float64(n)/float64(total))
				}
				key := partitionKey(teamA)
				if !best.found || breakdown.Overall < best.score.Overall ||
					(breakdown.Overall == best.score.Overall && key < best.key) {
					best.score = breakdown
					best.partition = types.TeamPartition{TeamA: teamA, TeamB: teamB}
					best.key = key
					best.found = true
				}
			}
		}(w)
	}
	wg.Wait()

	var winner *localBest
	for i := range results {
		r := &results[i]
		if !r.found {
			continue
		}
		if winner == nil || r.score.Overall < winner.score.Overall ||
			(r.score.Overall == winner.score.Overall && r.key < winner.key) {
			winner = r
		}
	}
	if winner == nil {
		// No candidate was scored before cancellation; treat like an
		// expired budget on the smallest possible workload.
		return nil, ctx.Err()
	}

	result := &types.BruteForceResult{
		TeamPartition:         winner.partition,
		BalanceScore:          winner.score.Overall,
		Breakdown:             winner.score,
		CombinationsEvaluated: atomic.LoadInt64(&evaluated),
		ComputeTimeMs:         time.Since(start).Milliseconds(),
		Exhaustive:            <-exhaustive,
	}

	log.WithFields(logrus.Fields{
		"combinations": result.CombinationsEvaluated,
		"best_score":   result.BalanceScore,
		"exhaustive":   result.Exhaustive,
		"time_ms":      result.ComputeTimeMs,
	}).Info("Exhaustive search completed")

	return result, nil
}

// skillThirds buckets the descending-sorted pool into top/middle/bottom
// thirds. Remainder players go to the top, then the middle.
func skillThirds(sorted []types.PlayerRecord) [3][]int {
	n := len(sorted)
	base := n / 3
	sizes := [3]int{base, base, base}
	switch n % 3 {
	case 1:
		sizes[0]++
	case 2:
		sizes[0]++
		sizes[1]++
	}
	var buckets [3][]int
	idx := 0
	for b := 0; b < 3; b++ {
		for i := 0; i < sizes[b]; i++ {
			buckets[b] = append(buckets[b], idx)
			idx++
		}
	}
	return buckets
}

// anchorIndex picks the player pinned to side A: the permanent keeper when
// supplied, otherwise the highest-rated player. Pinning halves the search
// space by breaking A/B symmetry.
func anchorIndex(sorted []types.PlayerRecord, gkID string) int {
	if gkID != "" {
		for i, p := range sorted {
			if p.ID == gkID {
				return i
			}
		}
	}
	return 0
}

// generateCandidates feeds side-A index sets onto out, one per partition
// satisfying the spread constraint with the anchor on side A. The returned
// channel reports whether enumeration ran to completion.
func generateCandidates(ctx context.Context, sorted []types.PlayerRecord, buckets [3][]int, anchor int, out chan<- []int) <-chan bool {
	done := make(chan bool, 1)
	go func() {
		defer close(out)
		complete := true

		n := len(sorted)
		lo, hi := n/2, (n+1)/2

		perBucket := make([][][]int, 3)
		for b := 0; b < 3; b++ {
			for _, k := range bucketTakeOptions(len(buckets[b])) {
				for _, combo := range bucketCombos(buckets[b], k, anchor) {
					perBucket[b] = append(perBucket[b], combo)
				}
			}
		}

	outer:
		for _, c0 := range perBucket[0] {
			for _, c1 := range perBucket[1] {
				for _, c2 := range perBucket[2] {
					size := len(c0) + len(c1) + len(c2)
					if size < lo || size > hi {
						continue
					}
					sideA := make([]int, 0, size)
					sideA = append(sideA, c0...)
					sideA = append(sideA, c1...)
					sideA = append(sideA, c2...)
					select {
					case out <- sideA:
					case <-ctx.Done():
						complete = false
						break outer
					}
				}
			}
		}
		done <- complete
	}()
	return done
}

// bucketTakeOptions lists the side-A take counts that keep a bucket evenly
// spread: exactly half, with both roundings when the bucket is odd.
func bucketTakeOptions(size int) []int {
	if size == 0 {
		return []int{0}
	}
	if size%2 == 0 {
		return []int{size / 2}
	}
	return []int{size / 2, size/2 + 1}
}

// bucketCombos enumerates k-subsets of the bucket. When the bucket contains
// the anchor, only subsets including it are produced.
func bucketCombos(bucket []int, k int, anchor int) [][]int {
	hasAnchor := false
	rest := make([]int, 0, len(bucket))
	for _, idx := range bucket {
		if idx == anchor {
			hasAnchor = true
		} else {
			rest = append(rest, idx)
		}
	}

	var out [][]int
	if hasAnchor {
		if k == 0 {
			return nil
		}
		combinations(rest, k-1, func(combo []int) {
			withAnchor := append([]int{anchor}, combo...)
			out = append(out, withAnchor)
		})
		return out
	}
	combinations(rest, k, func(combo []int) {
		c := make([]int, len(combo))
		copy(c, combo)
		out = append(out, c)
	})
	return out
}

// combinations invokes fn for every k-subset of items. fn must copy the
// slice if it retains it.
func combinations(items []int, k int, fn func([]int)) {
	if k < 0 || k > len(items) {
		return
	}
	combo := make([]int, 0, k)
	var recurse func(start int)
	recurse = func(start int) {
		if len(combo) == k {
			fn(combo)
			return
		}
		for i := start; i <= len(items)-(k-len(combo)); i++ {
			combo = append(combo, items[i])
			recurse(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	recurse(0)
}

func totalCombinations(buckets [3][]int, anchor int, n int) int64 {
	lo, hi := n/2, (n+1)/2
	var total int64
	sizes := [3][]int{}
	counts := [3]map[int]int64{}
	for b := 0; b < 3; b++ {
		counts[b] = make(map[int]int64)
		for _, k := range bucketTakeOptions(len(buckets[b])) {
			sizes[b] = append(sizes[b], k)
			counts[b][k] = int64(len(bucketCombos(buckets[b], k, anchor)))
		}
	}
	for _, k0 := range sizes[0] {
		for _, k1 := range sizes[1] {
			for _, k2 := range sizes[2] {
				if s := k0 + k1 + k2; s >= lo && s <= hi {
					total += counts[0][k0] * counts[1][k1] * counts[2][k2]
				}
			}
		}
	}
	return total
}

func splitByIndices(sorted []types.PlayerRecord, sideA []int) ([]types.PlayerRecord, []types.PlayerRecord) {
	inA := make(map[int]bool, len(sideA))
	for _, i := range sideA {
		inA[i] = true
	}
	teamA := make([]types.PlayerRecord, 0, len(sideA))
	teamB := make([]types.PlayerRecord, 0, len(sorted)-len(sideA))
	for i, p := range sorted {
		if inA[i] {
			teamA = append(teamA, p)
		} else {
			teamB = append(teamB, p)
		}
	}
	return teamA, teamB
}

func partitionKey(teamA []types.PlayerRecord) string {
	ids := make([]string, len(teamA))
	for i, p := range teamA {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	key := ""
	for _, id := range ids {
		key += id + "|"
	}
	return key
}
