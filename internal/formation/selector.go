package formation

import (
	"fmt"
	"sort"

	"github.com/pitchside/team-balancer/internal/balancer"
	"github.com/pitchside/team-balancer/internal/types"
)

// FormationSuggestion is a selected template plus the reasoning token that
// picked it.
type FormationSuggestion struct {
	Template types.FormationTemplate `json:"template"`
	Reason   string                  `json:"reason"`
	Trace    []types.TraceRecord     `json:"trace,omitempty"`
}

// Selector chooses formation templates against a team's classification
// composition. The catalogue is injected so tests can supply alternates.
type Selector struct {
	catalogue []types.FormationTemplate
}

func NewSelector(catalogue []types.FormationTemplate) *Selector {
	if catalogue == nil {
		catalogue = DefaultCatalogue()
	}
	return &Selector{catalogue: catalogue}
}

// teamComposition summarizes a roster for the selection rules.
type teamComposition struct {
	unplayable int
	veryWeak   int
	weak       int
	weakGroup  int
	atkSpec    int
	defSpec    int
	elite      int
	strong     int
	avgAttack  float64 // non-weak players only
	avgDefense float64
}

func composeTeam(team []types.PlayerRecord, classes map[string]types.PlayerClassification) teamComposition {
	c := teamComposition{}
	atkSum, defSum, nonWeak := 0.0, 0.0, 0
	for _, p := range team {
		class := classes[p.ID].Class
		switch class {
		case types.ClassUnplayable:
			c.unplayable++
		case types.ClassVeryWeak:
			c.veryWeak++
		case types.ClassWeak:
			c.weak++
		case types.ClassSpecialistAtk:
			c.atkSpec++
		case types.ClassSpecialistDef:
			c.defSpec++
		case types.ClassElite:
			c.elite++
		case types.ClassBalancedStrong:
			c.strong++
		}
		if class.IsWeakGroup() {
			c.weakGroup++
			continue
		}
		atkSum += p.Attack
		defSum += p.Defense
		nonWeak++
	}
	if nonWeak > 0 {
		c.avgAttack = atkSum / float64(nonWeak)
		c.avgDefense = defSum / float64(nonWeak)
	}
	return c
}

// Select picks a template for one team. The roster reserves one rotating
// goalkeeper, so the outfield count is the roster size minus one.
func (s *Selector) Select(team []types.PlayerRecord, classes map[string]types.PlayerClassification) (*FormationSuggestion, error) {
	if len(team) < 2 {
		return nil, balancer.ErrInsufficientPlayers
	}

	outfield := len(team) - 1
	trace := &types.Trace{}

	cands := candidatesFor(s.catalogue, outfield)
	if len(cands) == 0 {
		def := synthesizeDefault(outfield)
		trace.Add("formation", "", "synthesized", fmt.Sprintf("no catalogue template for %d outfield players", outfield))
		return &FormationSuggestion{Template: def, Reason: "synthesized-default", Trace: trace.Records}, nil
	}

	comp := composeTeam(team, classes)
	trace.Add("formation", "", "composition",
		fmt.Sprintf("unplayable=%d very_weak=%d weak=%d atk_spec=%d def_spec=%d elite=%d strong=%d avg_attack=%.1f",
			comp.unplayable, comp.veryWeak, comp.weak, comp.atkSpec, comp.defSpec, comp.elite, comp.strong, comp.avgAttack))

	// Priority rules, first match wins.
	pick := func(t types.FormationTemplate, reason string) (*FormationSuggestion, error) {
		trace.Add("formation", "", "selected", fmt.Sprintf("%s (%s)", t.Name, reason))
		return &FormationSuggestion{Template: t, Reason: reason, Trace: trace.Records}, nil
	}

	if comp.unplayable >= 2 {
		return pick(mostDefensiveSingleStriker(cands), "shield-unplayable")
	}
	if comp.veryWeak+comp.unplayable >= 3 {
		return pick(mostDefensiveSingleStriker(cands), "defense-heavy-weak-roster")
	}
	if comp.atkSpec >= 2 && comp.weakGroup <= 1 {
		if t, ok := twoStrikerTemplate(cands); ok {
			return pick(t, "twin-strikers")
		}
	}
	if comp.defSpec >= 2 && comp.avgAttack < 6.5 {
		return pick(mostDefensiveSingleStriker(cands), "defense-specialists")
	}
	if comp.avgAttack < 6.0 || comp.weak >= 2 {
		return pick(strongestMidfieldSingleStriker(cands), "conservative-midfield")
	}
	if 2*(comp.elite+comp.strong) >= len(team) {
		return pick(mostAttacking(cands), "attacking-strength")
	}
	return pick(strongestMidfieldSingleStriker(cands), "default-midfield")
}

// SuggestFormations classifies the whole pool once (classification is
// pool-relative, never formation-relative) and selects a template per team.
func SuggestFormations(teamA, teamB, pool []types.PlayerRecord) (*FormationSuggestion, *FormationSuggestion, []types.TraceRecord, error) {
	_, classes, err := balancer.ClassifyPool(pool)
	if err != nil {
		return nil, nil, nil, err
	}
	sel := NewSelector(nil)
	sa, err := sel.Select(teamA, classes)
	if err != nil {
		return nil, nil, nil, err
	}
	sb, err := sel.Select(teamB, classes)
	if err != nil {
		return nil, nil, nil, err
	}
	notes := append([]types.TraceRecord{}, sa.Trace...)
	notes = append(notes, sb.Trace...)
	return sa, sb, notes, nil
}

// Template pickers. All tie-break by name so selection stays deterministic.

func mostDefensiveSingleStriker(cands []types.FormationTemplate) types.FormationTemplate {
	filtered := withStrikers(cands, 1)
	return maxBy(filtered, func(t types.FormationTemplate) float64 {
		return float64(t.Defenders())
	})
}

func strongestMidfieldSingleStriker(cands []types.FormationTemplate) types.FormationTemplate {
	filtered := withStrikers(cands, 1)
	return maxBy(filtered, func(t types.FormationTemplate) float64 {
		return float64(t.CentralMidfield())
	})
}

func twoStrikerTemplate(cands []types.FormationTemplate) (types.FormationTemplate, bool) {
	var twoST []types.FormationTemplate
	for _, t := range cands {
		if t.Strikers() >= 2 {
			twoST = append(twoST, t)
		}
	}
	if len(twoST) == 0 {
		return types.FormationTemplate{}, false
	}
	return maxBy(twoST, func(t types.FormationTemplate) float64 {
		return float64(t.Strikers()*2 + t.Positions[types.PositionCAM])
	}), true
}

func mostAttacking(cands []types.FormationTemplate) types.FormationTemplate {
	return maxBy(cands, func(t types.FormationTemplate) float64 {
		return float64(t.Strikers()*2 + t.Positions[types.PositionCAM] + t.Positions[types.PositionW])
	})
}

func withStrikers(cands []types.FormationTemplate, n int) []types.FormationTemplate {
	var out []types.FormationTemplate
	for _, t := range cands {
		if t.Strikers() == n {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		// Every bracket carries at least one single-striker shape, but fall
		// back to the full candidate set rather than picking from nothing.
		return cands
	}
	return out
}

func maxBy(cands []types.FormationTemplate, key func(types.FormationTemplate) float64) types.FormationTemplate {
	sorted := make([]types.FormationTemplate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki > kj
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted[0]
}
