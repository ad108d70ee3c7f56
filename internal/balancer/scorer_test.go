package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitchside/team-balancer/internal/types"
)

func statLine(games int, overallWin, recentWin, overallGD, recentGD float64) *types.PerformanceStats {
	return &types.PerformanceStats{
		OverallWinRate:   overallWin,
		RecentWinRate:    recentWin,
		OverallGoalDiff:  overallGD,
		RecentGoalDiff:   recentGD,
		TotalGamesPlayed: games,
	}
}

func TestScoreIdenticalTeamsIsZero(t *testing.T) {
	team := []types.PlayerRecord{
		{ID: "a", Attack: 7, Defense: 5, GameIQ: 6, GK: 4, Stats: statLine(20, 0.6, 0.5, 1.2, 0.8)},
		{ID: "b", Attack: 4, Defense: 8, GameIQ: 5, GK: 6, Stats: statLine(15, 0.4, 0.5, -0.5, 0.2)},
	}
	mirror := []types.PlayerRecord{
		{ID: "c", Attack: 7, Defense: 5, GameIQ: 6, GK: 4, Stats: statLine(20, 0.6, 0.5, 1.2, 0.8)},
		{ID: "d", Attack: 4, Defense: 8, GameIQ: 5, GK: 6, Stats: statLine(15, 0.4, 0.5, -0.5, 0.2)},
	}

	scorer := NewScorer(DraftWeights(), nil, nil, nil)
	breakdown := scorer.Score(team, mirror)

	assert.InDelta(t, 0.0, breakdown.CoreRatings, 1e-9)
	assert.InDelta(t, 0.0, breakdown.Performance, 1e-9)
	assert.InDelta(t, 0.0, breakdown.Form, 1e-9)
	assert.InDelta(t, 0.0, breakdown.Overall, 1e-9)
}

func TestScoreEmptyLookupsAreNeutral(t *testing.T) {
	teamA := []types.PlayerRecord{
		{ID: "a", Attack: 8, Defense: 4, GameIQ: 6},
		{ID: "b", Attack: 5, Defense: 7, GameIQ: 5},
	}
	teamB := []types.PlayerRecord{
		{ID: "c", Attack: 6, Defense: 6, GameIQ: 6},
		{ID: "d", Attack: 7, Defense: 5, GameIQ: 5},
	}

	scorer := NewScorer(DraftWeights(), types.ChemistryLookup{}, types.RivalryLookup{}, types.TrioLookup{})
	breakdown := scorer.Score(teamA, teamB)

	assert.Equal(t, 0.0, breakdown.Chemistry.Pairwise)
	assert.Equal(t, 0.0, breakdown.Chemistry.Rivalry)
	assert.Equal(t, 0.0, breakdown.Chemistry.Trio)
	assert.Equal(t, 0.0, breakdown.Chemistry.Combined)

	// No stats on the pool at all: performance and form stay neutral and
	// the overall score is still finite.
	assert.Equal(t, 0.0, breakdown.Performance)
	assert.Equal(t, 0.0, breakdown.Form)
	assert.False(t, breakdown.Overall < 0)
	assert.False(t, breakdown.Overall > 1)
}

func TestScoreCoreGapNormalized(t *testing.T) {
	// One-dimension gap of 10 points contributes 10/4/10 = 0.25.
	teamA := []types.PlayerRecord{{ID: "a", Attack: 10}}
	teamB := []types.PlayerRecord{{ID: "b", Attack: 0}}

	scorer := NewScorer(DraftWeights(), nil, nil, nil)
	breakdown := scorer.Score(teamA, teamB)

	assert.InDelta(t, 0.25, breakdown.CoreRatings, 1e-9)
}

func TestScoreChemistryFavorsTightPairs(t *testing.T) {
	teamA := []types.PlayerRecord{{ID: "a"}, {ID: "b"}}
	teamB := []types.PlayerRecord{{ID: "c"}, {ID: "d"}}
	chem := types.ChemistryLookup{
		types.PairKey("a", "b"): 1.0,
		types.PairKey("c", "d"): -1.0,
	}

	scorer := NewScorer(DraftWeights(), chem, nil, nil)
	breakdown := scorer.Score(teamA, teamB)

	// Intra-team means are +1 and -1, gap 2 normalized to 1.
	assert.InDelta(t, 1.0, breakdown.Chemistry.Pairwise, 1e-9)
	assert.InDelta(t, 0.5, breakdown.Chemistry.Combined, 1e-9)
}

func TestScoreRivalryNetAdvantage(t *testing.T) {
	teamA := []types.PlayerRecord{{ID: "a"}}
	teamB := []types.PlayerRecord{{ID: "z"}}
	rivalry := types.RivalryLookup{
		types.PairKey("a", "z"): 0.6,
	}

	scorer := NewScorer(DraftWeights(), nil, rivalry, nil)
	breakdown := scorer.Score(teamA, teamB)

	assert.InDelta(t, 0.6, breakdown.Chemistry.Rivalry, 1e-9)
}

func TestScoreUnreliableStatsExcluded(t *testing.T) {
	// Below the games threshold the side has no reliable players, so the
	// performance gap collapses to neutral.
	teamA := []types.PlayerRecord{
		{ID: "a", Attack: 6, Stats: statLine(types.MinReliableGames-1, 0.9, 0.9, 3, 3)},
	}
	teamB := []types.PlayerRecord{
		{ID: "b", Attack: 6, Stats: statLine(50, 0.2, 0.2, -2, -2)},
	}

	scorer := NewScorer(DraftWeights(), nil, nil, nil)
	breakdown := scorer.Score(teamA, teamB)

	assert.Equal(t, 0.0, breakdown.Performance)
	assert.Equal(t, 0.0, breakdown.Form)
}

func TestScorePositionGapCountsLeanings(t *testing.T) {
	attackHeavy := []types.PlayerRecord{
		{ID: "a", Attack: 9, Defense: 3},
		{ID: "b", Attack: 8, Defense: 4},
	}
	defenseHeavy := []types.PlayerRecord{
		{ID: "c", Attack: 3, Defense: 9},
		{ID: "d", Attack: 4, Defense: 8},
	}

	scorer := NewScorer(DraftWeights(), nil, nil, nil)
	breakdown := scorer.Score(attackHeavy, defenseHeavy)

	// Two attack-leaning vs zero, two defense-leaning vs zero: gap 4/2
	// clamped to 1.
	assert.InDelta(t, 1.0, breakdown.Position, 1e-9)
}

func TestSearchWeightsRaiseForm(t *testing.T) {
	draft := DraftWeights()
	search := SearchWeights()

	assert.Equal(t, 0.05, draft.Form)
	assert.Equal(t, 0.15, search.Form)
	assert.Equal(t, draft.Core, search.Core)
}
