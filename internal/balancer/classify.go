package balancer

import (
	"fmt"
	"math"
	"sort"

	"github.com/pitchside/team-balancer/internal/types"
)

// Classifier rule thresholds. The evaluation order in classifyOne is a
// correctness contract: generic rules further down would misclassify
// extreme specialists whose overall average looks middling.
const (
	specialistRawGap      = 3.0
	unplayableZ           = -2.5
	veryWeakZ             = -1.5
	eliteZ                = 1.5
	eliteTopFraction      = 0.10
	rankTopFraction       = 0.15
	rankTopMinimum        = 3
	rankedSpecialistGap   = 0.5
	unrankedSpecialistGap = 0.75
	balancedSpread        = 0.75
)

// dimension indexes into per-player z-score triples.
const (
	dimAttack = iota
	dimDefense
	dimGameIQ
)

var specialistClassByDim = map[int]types.Classification{
	dimAttack:  types.ClassSpecialistAtk,
	dimDefense: types.ClassSpecialistDef,
	dimGameIQ:  types.ClassPlaymaker,
}

// ClassifyPool profiles the pool and classifies every player against it.
// Classification is deterministic: the same pool produces the same tags on
// every call.
func ClassifyPool(pool []types.PlayerRecord) (types.PoolProfile, map[string]types.PlayerClassification, error) {
	if len(pool) < 2 {
		return types.PoolProfile{}, nil, ErrInsufficientPlayers
	}

	profile := BuildPoolProfile(pool)
	ranks := buildRankTables(pool)

	out := make(map[string]types.PlayerClassification, len(pool))
	for _, p := range pool {
		class, reason := classifyOne(p, profile, ranks)
		out[p.ID] = types.PlayerClassification{
			PlayerID: p.ID,
			Class:    class,
			Reason:   reason,
		}
	}
	return profile, out, nil
}

// rankTables holds pool-relative orderings so rank rules never depend on a
// candidate partition.
type rankTables struct {
	size    int
	overall map[string]int // 1-based rank, highest overall first
	byDim   [3]map[string]int
}

func buildRankTables(pool []types.PlayerRecord) rankTables {
	t := rankTables{
		size:    len(pool),
		overall: rankBy(pool, func(p types.PlayerRecord) float64 { return p.Overall() }),
	}
	t.byDim[dimAttack] = rankBy(pool, func(p types.PlayerRecord) float64 { return p.Attack })
	t.byDim[dimDefense] = rankBy(pool, func(p types.PlayerRecord) float64 { return p.Defense })
	t.byDim[dimGameIQ] = rankBy(pool, func(p types.PlayerRecord) float64 { return p.GameIQ })
	return t
}

func rankBy(pool []types.PlayerRecord, key func(types.PlayerRecord) float64) map[string]int {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := key(pool[idx[a]]), key(pool[idx[b]])
		if ka != kb {
			return ka > kb
		}
		return pool[idx[a]].ID < pool[idx[b]].ID
	})
	ranks := make(map[string]int, len(pool))
	for pos, i := range idx {
		ranks[pool[i].ID] = pos + 1
	}
	return ranks
}

// rankCutoff is the top-15%-or-top-3 boundary, whichever is larger.
func (t rankTables) rankCutoff() int {
	cut := int(math.Ceil(rankTopFraction * float64(t.size)))
	if cut < rankTopMinimum {
		cut = rankTopMinimum
	}
	return cut
}

func classifyOne(p types.PlayerRecord, profile types.PoolProfile, ranks rankTables) (types.Classification, string) {
	z := [3]float64{
		zScore(p.Attack, profile.Attack),
		zScore(p.Defense, profile.Defense),
		zScore(p.GameIQ, profile.GameIQ),
	}
	overall := p.Overall()
	overallZ := zScore(overall, profile.Overall)

	// 1. Hard specialist overrides, independent of overall rating.
	if p.Defense >= profile.Defense.Percentiles.P75 && p.Attack <= profile.Attack.Percentiles.P25 {
		return types.ClassSpecialistDef, fmt.Sprintf("defense %.1f at/above p75 with attack %.1f at/below p25", p.Defense, p.Attack)
	}
	if p.Attack >= profile.Attack.Percentiles.P75 && p.Defense <= profile.Defense.Percentiles.P25 {
		return types.ClassSpecialistAtk, fmt.Sprintf("attack %.1f at/above p75 with defense %.1f at/below p25", p.Attack, p.Defense)
	}
	if p.Attack-p.Defense >= specialistRawGap && p.Attack >= profile.Attack.Median {
		return types.ClassSpecialistAtk, fmt.Sprintf("raw attack/defense gap %.1f with attack above pool median", p.Attack-p.Defense)
	}
	if p.Defense-p.Attack >= specialistRawGap && p.Defense >= profile.Defense.Median {
		return types.ClassSpecialistDef, fmt.Sprintf("raw defense/attack gap %.1f with defense above pool median", p.Defense-p.Attack)
	}

	// 2. Extreme outliers.
	if overallZ < unplayableZ {
		return types.ClassUnplayable, fmt.Sprintf("overall z-score %.2f below %.1f", overallZ, unplayableZ)
	}
	if overallZ < veryWeakZ {
		return types.ClassVeryWeak, fmt.Sprintf("overall z-score %.2f below %.1f", overallZ, veryWeakZ)
	}

	// 3. Bottom quartile but above the very-weak line.
	if overall <= profile.Overall.Percentiles.P25 {
		return types.ClassWeak, fmt.Sprintf("overall %.2f in bottom quartile", overall)
	}

	// 4. Elite.
	eliteCut := int(math.Ceil(eliteTopFraction * float64(ranks.size)))
	if eliteCut < 1 {
		eliteCut = 1
	}
	if overallZ > eliteZ {
		return types.ClassElite, fmt.Sprintf("overall z-score %.2f above %.1f", overallZ, eliteZ)
	}
	if ranks.overall[p.ID] <= eliteCut {
		return types.ClassElite, fmt.Sprintf("rank %d in pool top %d by overall", ranks.overall[p.ID], eliteCut)
	}

	// 5. Rank-based specialists. A rank-qualified dimension needs a smaller
	// z-gap over the other two than an unranked one.
	cutoff := ranks.rankCutoff()
	for dim := 0; dim < 3; dim++ {
		others := math.Max(z[(dim+1)%3], z[(dim+2)%3])
		gap := z[dim] - others
		rankQualified := ranks.byDim[dim][p.ID] <= cutoff
		required := unrankedSpecialistGap
		if rankQualified {
			required = rankedSpecialistGap
		}
		if gap > required {
			return specialistClassByDim[dim], fmt.Sprintf("dimension z-gap %.2f over threshold %.2f (rank %d, cutoff %d)", gap, required, ranks.byDim[dim][p.ID], cutoff)
		}
	}

	// 6. Balance check across the three z-scores.
	spread := maxOf(z[:]) - minOf(z[:])
	if spread <= balancedSpread {
		if overall >= profile.Overall.Percentiles.P75 {
			return types.ClassBalancedStrong, fmt.Sprintf("z-spread %.2f with overall at/above p75", spread)
		}
		if overall >= profile.Overall.Percentiles.P50 {
			return types.ClassBalancedAverage, fmt.Sprintf("z-spread %.2f with overall at/above p50", spread)
		}
	}

	// 7. Below average band.
	if overall > profile.Overall.Percentiles.P25 && overall < profile.Overall.Percentiles.P50 {
		return types.ClassBelowAverage, fmt.Sprintf("overall %.2f between p25 and p50", overall)
	}

	// 8. Default.
	return types.ClassBalancedAverage, "no prior rule matched"
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
