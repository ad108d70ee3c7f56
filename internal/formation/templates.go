package formation

import (
	"math"

	"github.com/pitchside/team-balancer/internal/types"
)

// DefaultCatalogue returns the static formation table, keyed by outfield
// count (roster size minus the rotating keeper). The catalogue is read-only
// data; pass an alternate one to the selector for testing.
func DefaultCatalogue() []types.FormationTemplate {
	return []types.FormationTemplate{
		// 3 outfield
		tmpl("1-1-1", 3, "balanced", pos{types.PositionDEF: 1, types.PositionCM: 1, types.PositionST: 1}),

		// 4 outfield
		tmpl("1-2-1", 4, "balanced", pos{types.PositionDEF: 1, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-1-1", 4, "defensive", pos{types.PositionDEF: 2, types.PositionCM: 1, types.PositionST: 1}),

		// 5 outfield
		tmpl("2-2-1", 5, "balanced", pos{types.PositionDEF: 2, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("1-1-1-1-1", 5, "balanced", pos{types.PositionDEF: 1, types.PositionCDM: 1, types.PositionCM: 1, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("2-1-1-1", 5, "attacking", pos{types.PositionDEF: 2, types.PositionCM: 1, types.PositionCAM: 1, types.PositionST: 1}),

		// 6 outfield
		tmpl("3-2-1", 6, "defensive", pos{types.PositionDEF: 3, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-1-2-1", 6, "balanced", pos{types.PositionDEF: 2, types.PositionCDM: 1, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-2-1-1", 6, "balanced", pos{types.PositionDEF: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("2-2-2", 6, "attacking", pos{types.PositionDEF: 2, types.PositionCM: 2, types.PositionST: 2}),

		// 7 outfield
		tmpl("3-1-2-1", 7, "defensive", pos{types.PositionDEF: 3, types.PositionCDM: 1, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-1-3-1", 7, "balanced", pos{types.PositionDEF: 2, types.PositionCDM: 1, types.PositionCM: 3, types.PositionST: 1}),
		tmpl("2-2-2-1 wide", 7, "balanced", pos{types.PositionDEF: 2, types.PositionW: 2, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-1-2-1-1", 7, "balanced", pos{types.PositionDEF: 2, types.PositionCDM: 1, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("2-2-1-2", 7, "attacking", pos{types.PositionDEF: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 2}),

		// 8 outfield
		tmpl("3-1-3-1", 8, "defensive", pos{types.PositionDEF: 3, types.PositionCDM: 1, types.PositionCM: 3, types.PositionST: 1}),
		tmpl("3-2-2-1 wide", 8, "balanced", pos{types.PositionDEF: 3, types.PositionW: 2, types.PositionCM: 2, types.PositionST: 1}),
		tmpl("2-1-3-1-1", 8, "balanced", pos{types.PositionDEF: 2, types.PositionCDM: 1, types.PositionCM: 3, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("2-2-2-1-1 wide", 8, "balanced", pos{types.PositionDEF: 2, types.PositionW: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("3-2-1-2", 8, "attacking", pos{types.PositionDEF: 3, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 2}),

		// 9 outfield
		tmpl("4-1-3-1", 9, "defensive", pos{types.PositionDEF: 4, types.PositionCDM: 1, types.PositionCM: 3, types.PositionST: 1}),
		tmpl("3-1-3-1-1", 9, "balanced", pos{types.PositionDEF: 3, types.PositionCDM: 1, types.PositionCM: 3, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("3-2-2-1-1 wide", 9, "balanced", pos{types.PositionDEF: 3, types.PositionW: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("3-2-2-2 wide", 9, "attacking", pos{types.PositionDEF: 3, types.PositionW: 2, types.PositionCM: 2, types.PositionST: 2}),

		// 10 outfield
		tmpl("4-1-4-1", 10, "defensive", pos{types.PositionDEF: 4, types.PositionCDM: 1, types.PositionCM: 4, types.PositionST: 1}),
		tmpl("3-1-2-2-1-1", 10, "balanced", pos{types.PositionDEF: 3, types.PositionCDM: 1, types.PositionW: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("4-2-3-1", 10, "balanced", pos{types.PositionDEF: 4, types.PositionCDM: 2, types.PositionW: 2, types.PositionCAM: 1, types.PositionST: 1}),
		tmpl("3-2-2-1-2 wide", 10, "attacking", pos{types.PositionDEF: 3, types.PositionW: 2, types.PositionCM: 2, types.PositionCAM: 1, types.PositionST: 2}),
	}
}

type pos = map[types.Position]int

func tmpl(name string, outfield int, style string, positions pos) types.FormationTemplate {
	return types.FormationTemplate{
		Name:       name,
		MinPlayers: outfield,
		MaxPlayers: outfield,
		Positions:  positions,
		Style:      style,
	}
}

// candidatesFor filters the catalogue to templates whose player bracket
// contains the outfield count.
func candidatesFor(catalogue []types.FormationTemplate, outfield int) []types.FormationTemplate {
	var out []types.FormationTemplate
	for _, t := range catalogue {
		if outfield >= t.MinPlayers && outfield <= t.MaxPlayers {
			out = append(out, t)
		}
	}
	return out
}

// synthesizeDefault builds a template when the catalogue has no bracket for
// the roster: roughly 35% defenders, 35% midfielders, remainder forward with
// at least one striker.
func synthesizeDefault(outfield int) types.FormationTemplate {
	// Rosters too small for a back line get midfield cover and a striker.
	if outfield < 3 {
		positions := pos{types.PositionST: 1}
		if outfield > 1 {
			positions[types.PositionCM] = outfield - 1
		}
		return types.FormationTemplate{
			Name:       "synthesized",
			MinPlayers: outfield,
			MaxPlayers: outfield,
			Positions:  positions,
			Style:      "balanced",
		}
	}

	def := int(math.Round(0.35 * float64(outfield)))
	mid := int(math.Round(0.35 * float64(outfield)))
	if def < 1 {
		def = 1
	}
	if mid < 1 {
		mid = 1
	}
	fwd := outfield - def - mid
	for fwd < 1 {
		if mid > 1 {
			mid--
		} else {
			def--
		}
		fwd = outfield - def - mid
	}

	positions := pos{
		types.PositionDEF: def,
		types.PositionCM:  mid,
		types.PositionST:  1,
	}
	if fwd > 1 {
		positions[types.PositionW] = fwd - 1
	}
	return types.FormationTemplate{
		Name:       "synthesized",
		MinPlayers: outfield,
		MaxPlayers: outfield,
		Positions:  positions,
		Style:      "balanced",
	}
}
