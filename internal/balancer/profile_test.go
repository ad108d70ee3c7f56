package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitchside/team-balancer/internal/types"
)

func TestBuildPoolProfile(t *testing.T) {
	pool := []types.PlayerRecord{
		{ID: "p1", Attack: 2, Defense: 4, GameIQ: 6},
		{ID: "p2", Attack: 4, Defense: 6, GameIQ: 6},
		{ID: "p3", Attack: 6, Defense: 8, GameIQ: 6},
		{ID: "p4", Attack: 8, Defense: 10, GameIQ: 6},
	}

	profile := BuildPoolProfile(pool)

	assert.Equal(t, 4, profile.Size)
	assert.InDelta(t, 5.0, profile.Attack.Mean, 1e-9)
	assert.InDelta(t, 7.0, profile.Defense.Mean, 1e-9)
	assert.InDelta(t, 6.0, profile.GameIQ.Mean, 1e-9)
	assert.InDelta(t, 0.0, profile.GameIQ.StdDev, 1e-9)

	// Linear interpolation at index (p/100)*(n-1).
	assert.InDelta(t, 5.0, profile.Attack.Median, 1e-9)
	assert.InDelta(t, 3.5, profile.Attack.Percentiles.P25, 1e-9)
	assert.InDelta(t, 6.5, profile.Attack.Percentiles.P75, 1e-9)
	assert.InDelta(t, 2.6, profile.Attack.Percentiles.P10, 1e-9)
	assert.InDelta(t, 7.4, profile.Attack.Percentiles.P90, 1e-9)
}

func TestPercentileSingleton(t *testing.T) {
	for _, p := range []float64{0, 10, 50, 90, 100} {
		assert.InDelta(t, 7.5, percentile([]float64{7.5}, p), 1e-9)
	}
}

func TestZScoreZeroSpread(t *testing.T) {
	dist := types.SkillDistribution{Mean: 5, StdDev: 0}
	assert.Equal(t, 0.0, zScore(9, dist))
	assert.Equal(t, 0.0, zScore(1, dist))
}

func TestPercentileRank(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.InDelta(t, 0.0, percentileRank(0.5, values), 1e-9)
	assert.InDelta(t, 100.0, percentileRank(9, values), 1e-9)
	// Half credit for the tie at 3.
	assert.InDelta(t, 62.5, percentileRank(3, values), 1e-9)
	assert.InDelta(t, 50.0, percentileRank(3, nil), 1e-9)
}
