package balancer

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/team-balancer/internal/types"
	"github.com/pitchside/team-balancer/pkg/logger"
)

// DraftOptions configures tier-based snake-draft balancing.
type DraftOptions struct {
	PermanentGKIDs []string
	Chemistry      types.ChemistryLookup
	// SwapLimit caps local-search iterations. Zero uses DefaultSwapLimit.
	SwapLimit int
}

// DefaultSwapLimit bounds the local-search pass; each iteration applies at
// most one swap, so this is also the maximum number of accepted swaps.
const DefaultSwapLimit = 40

// Composite rating adjustments blended on top of base skill.
const (
	perfWinWeight    = 2.0
	perfGoalWeight   = 0.2
	perfAdjustLimit  = 1.0
	momentumGDWeight = 0.1
	momentumLimit    = 0.5
)

// BalanceBySnakeDraft tiers the pool by composite rating, runs an
// alternating snake draft, then local-swaps within tiers while the balance
// score strictly improves.
func BalanceBySnakeDraft(pool []types.PlayerRecord, opts DraftOptions) (*types.TierDraftResult, error) {
	if len(pool) < 2 {
		return nil, ErrInsufficientPlayers
	}

	runID := uuid.New().String()
	log := logger.WithBalanceContext(runID, "snake-draft")
	log.WithFields(logrus.Fields{
		"pool_size":     len(pool),
		"permanent_gks": len(opts.PermanentGKIDs),
	}).Info("Starting snake-draft balancing")

	ratings := make(map[string]float64, len(pool))
	for _, p := range pool {
		ratings[p.ID] = compositeRating(p)
	}

	sorted := make([]types.PlayerRecord, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := ratings[sorted[i].ID], ratings[sorted[j].ID]
		if ri != rj {
			return ri > rj
		}
		return sorted[i].ID < sorted[j].ID
	})

	tiers, tierOf := buildTiers(sorted, ratings)
	log.WithField("tier_count", len(tiers)).Debug("Tiered player pool")

	teamA, teamB, pinned := preAssignGoalkeepers(sorted, opts.PermanentGKIDs)
	teamA, teamB = runSnakeDraft(sorted, tiers, teamA, teamB, pinned, len(pool))

	scorer := NewScorer(DraftWeights(), opts.Chemistry, nil, nil)
	initial := scorer.Score(teamA, teamB).Overall

	swapLimit := opts.SwapLimit
	if swapLimit <= 0 {
		swapLimit = DefaultSwapLimit
	}
	teamA, teamB, optimized, swaps := localSearch(teamA, teamB, tierOf, pinned, scorer, initial, swapLimit)

	result := &types.TierDraftResult{
		TeamPartition:  types.TeamPartition{TeamA: teamA, TeamB: teamB},
		Tiers:          tiers,
		InitialScore:   initial,
		OptimizedScore: optimized,
		WasOptimized:   swaps > 0,
		SwapCount:      swaps,
		Confidence:     draftConfidence(pool),
	}

	log.WithFields(logrus.Fields{
		"initial_score":   initial,
		"optimized_score": optimized,
		"swaps":           swaps,
		"confidence":      result.Confidence,
	}).Info("Snake-draft balancing completed")

	return result, nil
}

// compositeRating blends base skill with a performance adjustment from
// recent results and a momentum adjustment from the recent-vs-career delta.
// Players without reliable stats keep their base skill unchanged.
func compositeRating(p types.PlayerRecord) float64 {
	base := p.Overall()
	if p.Stats.Reliable() {
		perf := (p.Stats.RecentWinRate-0.5)*perfWinWeight + p.Stats.RecentGoalDiff*perfGoalWeight
		momentum := (p.Stats.RecentWinRate - p.Stats.OverallWinRate) +
			(p.Stats.RecentGoalDiff-p.Stats.OverallGoalDiff)*momentumGDWeight
		base += clampF(perf, -perfAdjustLimit, perfAdjustLimit)
		base += clampF(momentum, -momentumLimit, momentumLimit)
	}
	return clampF(base, types.RatingMin, types.RatingMax)
}

// buildTiers partitions the descending-sorted pool into contiguous rating
// bands of roughly equal size. Equal ratings never straddle a tier boundary.
func buildTiers(sorted []types.PlayerRecord, ratings map[string]float64) ([]types.Tier, map[string]int) {
	n := len(sorted)
	tierCount := (n + 3) / 4
	if tierCount < 2 {
		tierCount = 2
	}
	if tierCount > 6 {
		tierCount = 6
	}
	target := int(math.Ceil(float64(n) / float64(tierCount)))

	tiers := make([]types.Tier, 0, tierCount)
	tierOf := make(map[string]int, n)

	current := types.Tier{Number: 0, MaxRating: ratings[sorted[0].ID]}
	for i, p := range sorted {
		current.PlayerIDs = append(current.PlayerIDs, p.ID)
		current.MinRating = ratings[p.ID]
		tierOf[p.ID] = current.Number

		last := i == n-1
		closeTier := !last && len(current.PlayerIDs) >= target &&
			ratings[sorted[i+1].ID] < ratings[p.ID] &&
			current.Number < tierCount-1
		if closeTier {
			tiers = append(tiers, current)
			current = types.Tier{Number: current.Number + 1, MaxRating: ratings[sorted[i+1].ID]}
		}
	}
	tiers = append(tiers, current)
	return tiers, tierOf
}

// preAssignGoalkeepers places permanent keepers one per side before the
// draft starts. Returned pinned set excludes them from local-search swaps.
func preAssignGoalkeepers(sorted []types.PlayerRecord, gkIDs []string) (teamA, teamB []types.PlayerRecord, pinned map[string]bool) {
	pinned = make(map[string]bool)
	gkSet := make(map[string]bool, len(gkIDs))
	for _, id := range gkIDs {
		gkSet[id] = true
	}
	side := 0
	for _, p := range sorted {
		if !gkSet[p.ID] && !p.IsPermanentGK {
			continue
		}
		if !gkSet[p.ID] {
			// Flagged on the record but not requested for pinning.
			continue
		}
		pinned[p.ID] = true
		if side == 0 {
			teamA = append(teamA, p)
		} else {
			teamB = append(teamB, p)
		}
		side = 1 - side
	}
	return teamA, teamB, pinned
}

// runSnakeDraft iterates tiers from highest to lowest, alternating the pick
// direction each tier: tier 0 goes A,B,A,B and tier 1 goes B,A,B,A. Side
// capacity caps keep the final size difference at most one.
func runSnakeDraft(sorted []types.PlayerRecord, tiers []types.Tier, teamA, teamB []types.PlayerRecord, pinned map[string]bool, total int) ([]types.PlayerRecord, []types.PlayerRecord) {
	byID := make(map[string]types.PlayerRecord, len(sorted))
	for _, p := range sorted {
		byID[p.ID] = p
	}
	sideCap := (total + 1) / 2

	for _, tier := range tiers {
		due := tier.Number % 2 // 0 picks A first, 1 picks B first
		for _, id := range tier.PlayerIDs {
			if pinned[id] {
				continue
			}
			p := byID[id]
			pickA := due == 0
			if pickA && len(teamA) >= sideCap {
				pickA = false
			} else if !pickA && len(teamB) >= sideCap {
				pickA = true
			}
			if pickA {
				teamA = append(teamA, p)
			} else {
				teamB = append(teamB, p)
			}
			due = 1 - due
		}
	}
	return teamA, teamB
}

// localSearch repeatedly applies the single best same-tier cross-team swap
// that strictly lowers the balance score, until no improving swap exists or
// the iteration cap is hit. The score sequence is monotonically
// non-increasing, so the search always terminates.
func localSearch(teamA, teamB []types.PlayerRecord, tierOf map[string]int, pinned map[string]bool, scorer *Scorer, initial float64, limit int) ([]types.PlayerRecord, []types.PlayerRecord, float64, int) {
	const epsilon = 1e-12
	current := initial
	swaps := 0

	for iter := 0; iter < limit; iter++ {
		bestI, bestJ := -1, -1
		bestScore := current
		for i := range teamA {
			if pinned[teamA[i].ID] {
				continue
			}
			for j := range teamB {
				if pinned[teamB[j].ID] {
					continue
				}
				if tierOf[teamA[i].ID] != tierOf[teamB[j].ID] {
					continue
				}
				teamA[i], teamB[j] = teamB[j], teamA[i]
				trial := scorer.Score(teamA, teamB).Overall
				teamA[i], teamB[j] = teamB[j], teamA[i]
				if trial < bestScore-epsilon {
					bestScore = trial
					bestI, bestJ = i, j
				}
			}
		}
		if bestI < 0 {
			break
		}
		teamA[bestI], teamB[bestJ] = teamB[bestJ], teamA[bestI]
		current = bestScore
		swaps++
	}
	return teamA, teamB, current, swaps
}

// draftConfidence grades the result by how much of the pool has a reliable
// game history.
func draftConfidence(pool []types.PlayerRecord) string {
	reliable := 0
	for _, p := range pool {
		if p.Stats.Reliable() {
			reliable++
		}
	}
	frac := float64(reliable) / float64(len(pool))
	switch {
	case frac >= 0.7:
		return types.ConfidenceHigh
	case frac >= 0.4:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
