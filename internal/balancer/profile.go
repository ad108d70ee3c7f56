package balancer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pitchside/team-balancer/internal/types"
)

// BuildPoolProfile computes the per-dimension skill distributions for a
// player pool. The profile is over the whole pool: candidate partitions
// produced later never trigger a recomputation.
func BuildPoolProfile(pool []types.PlayerRecord) types.PoolProfile {
	attack := make([]float64, len(pool))
	defense := make([]float64, len(pool))
	gameIQ := make([]float64, len(pool))
	overall := make([]float64, len(pool))

	for i, p := range pool {
		attack[i] = p.Attack
		defense[i] = p.Defense
		gameIQ[i] = p.GameIQ
		overall[i] = p.Overall()
	}

	return types.PoolProfile{
		Attack:  buildDistribution(attack),
		Defense: buildDistribution(defense),
		GameIQ:  buildDistribution(gameIQ),
		Overall: buildDistribution(overall),
		Size:    len(pool),
	}
}

func buildDistribution(values []float64) types.SkillDistribution {
	if len(values) == 0 {
		return types.SkillDistribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return types.SkillDistribution{
		Mean:   stat.Mean(values, nil),
		Median: percentile(sorted, 50),
		StdDev: stat.PopStdDev(values, nil),
		Percentiles: types.Percentiles{
			P10: percentile(sorted, 10),
			P25: percentile(sorted, 25),
			P50: percentile(sorted, 50),
			P75: percentile(sorted, 75),
			P90: percentile(sorted, 90),
		},
	}
}

// percentile interpolates linearly over the sorted value array at fractional
// index (p/100)*(n-1). A singleton array returns its only value for every p.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := (p / 100.0) * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// zScore is the standard score of v within dist. A zero-spread pool always
// yields 0. No division by zero.
func zScore(v float64, dist types.SkillDistribution) float64 {
	if dist.StdDev == 0 {
		return 0
	}
	return (v - dist.Mean) / dist.StdDev
}

// percentileRank is the percentage of pool values strictly below v, with
// half credit for ties. Used for percentile-floor checks during forced
// position placement.
func percentileRank(v float64, values []float64) float64 {
	if len(values) == 0 {
		return 50
	}
	below, equal := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return 100 * (float64(below) + 0.5*float64(equal)) / float64(len(values))
}
