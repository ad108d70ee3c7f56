package formation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/team-balancer/internal/types"
)

func varietyPool(n int) []types.PlayerRecord {
	pool := make([]types.PlayerRecord, n)
	for i := 0; i < n; i++ {
		pool[i] = types.PlayerRecord{
			ID:      fmt.Sprintf("v%02d", i),
			Name:    fmt.Sprintf("Player %d", i),
			Attack:  float64(3 + (i*7)%6),
			Defense: float64(3 + (i*5)%6),
			GameIQ:  float64(3 + (i*3)%6),
		}
	}
	return pool
}

func TestAssignPositionsCoversRoster(t *testing.T) {
	pool := varietyPool(16)
	team := pool[:8]
	tmpl := DefaultCatalogue()[11] // 2-1-3-1, 7 outfield

	result, err := AssignPositions(team, pool, tmpl)
	require.NoError(t, err)

	// All eight players land in a slot; the spare body over the seven
	// outfield slots rides the W/CM overfill under the rotating keeper.
	require.Len(t, result.Assignments, len(team))

	seen := make(map[string]bool)
	counts := make(map[types.Position]int)
	for _, a := range result.Assignments {
		assert.False(t, seen[a.PlayerID], "player %s assigned twice", a.PlayerID)
		seen[a.PlayerID] = true
		counts[a.Position]++
	}
	for _, p := range team {
		assert.True(t, seen[p.ID], "player %s missing from assignments", p.ID)
	}

	for _, p := range types.AllPositions {
		quota := tmpl.Positions[p]
		limit := quota
		if p == types.PositionW || p == types.PositionCM {
			limit = quota + 1 // overfill of one is allowed to place everyone
		}
		assert.LessOrEqual(t, counts[p], limit, "position %s overfilled", p)
	}
}

func TestAssignPositionsBlocksMismatchedProfiles(t *testing.T) {
	pool := varietyPool(12)
	// A pure striker profile never lands in DEF and a pure stopper never
	// lands at ST.
	pool[0].Attack, pool[0].Defense, pool[0].GameIQ = 9.5, 3, 6
	pool[1].Attack, pool[1].Defense, pool[1].GameIQ = 3, 9.5, 6

	team := pool[:6]
	tmpl := DefaultCatalogue()[3] // 2-2-1, 5 outfield

	result, err := AssignPositions(team, pool, tmpl)
	require.NoError(t, err)

	for _, a := range result.Assignments {
		if a.PlayerID == pool[0].ID {
			assert.NotEqual(t, types.PositionDEF, a.Position)
			assert.NotEqual(t, types.PositionCDM, a.Position)
		}
		if a.PlayerID == pool[1].ID {
			assert.NotEqual(t, types.PositionST, a.Position)
		}
	}
}

func TestAssignPositionsConfidenceNeedsFilledTemplate(t *testing.T) {
	pool := varietyPool(12)
	for i := 0; i < 4; i++ {
		pool[i].Attack, pool[i].Defense, pool[i].GameIQ = 8, 8, 8
	}
	team := pool[:4]
	tmpl := DefaultCatalogue()[11] // 2-1-3-1, 7 outfield

	result, err := AssignPositions(team, pool, tmpl)
	require.NoError(t, err)

	// Strong scores alone never rate high confidence while base slots
	// stay empty.
	assert.NotEqual(t, types.ConfidenceHigh, result.Confidence)
}

func TestAssignPositionsTooFewPlayers(t *testing.T) {
	pool := varietyPool(4)
	_, err := AssignPositions(pool[:1], pool, DefaultCatalogue()[0])
	assert.Error(t, err)
}

func TestAssignPositionsScoresAndConfidence(t *testing.T) {
	pool := varietyPool(16)
	team := pool[8:]
	tmpl := DefaultCatalogue()[11]

	result, err := AssignPositions(team, pool, tmpl)
	require.NoError(t, err)

	assert.Contains(t, []string{
		types.ConfidenceHigh, types.ConfidenceMedium, types.ConfidenceLow,
	}, result.Confidence)
	assert.Greater(t, result.MeanScore, 0.0)
	for _, a := range result.Assignments {
		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.NotEmpty(t, a.PlayerName)
		assert.NotContains(t, a.Alternatives, a.Position)
	}
}

func TestAssignPositionsDeterministic(t *testing.T) {
	pool := varietyPool(14)
	team := pool[:7]
	tmpl := DefaultCatalogue()[6] // 3-2-1, 6 outfield

	first, err := AssignPositions(team, pool, tmpl)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := AssignPositions(team, pool, tmpl)
		require.NoError(t, err)
		assert.Equal(t, first.Assignments, again.Assignments)
	}
}

func TestBasePositionScoreBlends(t *testing.T) {
	p := types.PlayerRecord{Attack: 8, Defense: 4, GameIQ: 6}

	assert.InDelta(t, 8.0, basePositionScore(p, types.PositionST), 1e-9)
	assert.InDelta(t, 4.0, basePositionScore(p, types.PositionDEF), 1e-9)
	assert.InDelta(t, 0.6*8+0.4*6, basePositionScore(p, types.PositionCAM), 1e-9)
	assert.InDelta(t, 0.6*4+0.4*6, basePositionScore(p, types.PositionCDM), 1e-9)
}

func TestAttributeBonusBounded(t *testing.T) {
	p := types.PlayerRecord{
		Attack: 6, Defense: 6, GameIQ: 6,
		Attributes: &types.DerivedAttributes{Shooting: 1.0},
	}
	assert.InDelta(t, 1.0, attributeBonus(p, types.PositionST), 1e-9)

	p.Attributes.Shooting = 0.0
	assert.InDelta(t, -1.0, attributeBonus(p, types.PositionST), 1e-9)

	noAttrs := types.PlayerRecord{Attack: 6}
	assert.Equal(t, 0.0, attributeBonus(noAttrs, types.PositionST))
}

func TestNaturalPositionsWindow(t *testing.T) {
	striker := types.PlayerRecord{Attack: 9, Defense: 3, GameIQ: 5}
	natural := naturalPositions(striker)

	assert.True(t, natural[types.PositionST])
	assert.False(t, natural[types.PositionDEF])
}
