package balancer

import (
	"math"

	"github.com/pitchside/team-balancer/internal/types"
)

// Weights controls the composite balance score. Components are gaps in 0..1;
// the overall scalar is their weighted sum and lower always means more
// balanced, in every balancer.
type Weights struct {
	Core        float64
	Chemistry   float64
	Performance float64
	Form        float64
	Position    float64
	Attributes  float64

	// Chemistry sub-weights, applied inside the Chemistry share.
	ChemPairwise float64
	ChemRivalry  float64
	ChemTrio     float64
}

// DraftWeights is the variant used by the snake-draft local search, where
// recent form carries the minimum share.
func DraftWeights() Weights {
	return Weights{
		Core:         0.40,
		Chemistry:    0.20,
		Performance:  0.20,
		Form:         0.05,
		Position:     0.10,
		Attributes:   0.10,
		ChemPairwise: 0.5,
		ChemRivalry:  0.3,
		ChemTrio:     0.2,
	}
}

// SearchWeights is the variant used by exhaustive search, weighting recent
// form at the top of its band.
func SearchWeights() Weights {
	w := DraftWeights()
	w.Form = 0.15
	return w
}

// Scorer compares two candidate teams. It is pure and safe for concurrent
// use: all lookup maps are read-only references owned by the caller.
type Scorer struct {
	weights Weights
	chem    types.ChemistryLookup
	rivalry types.RivalryLookup
	trio    types.TrioLookup
}

func NewScorer(w Weights, chem types.ChemistryLookup, rivalry types.RivalryLookup, trio types.TrioLookup) *Scorer {
	return &Scorer{weights: w, chem: chem, rivalry: rivalry, trio: trio}
}

// Score computes the full breakdown for a candidate partition. Missing
// optional inputs (no chemistry data, no attributes, too few recorded games)
// leave the corresponding component at zero gap; they are never an error.
func (s *Scorer) Score(teamA, teamB []types.PlayerRecord) types.ScoreBreakdown {
	b := types.ScoreBreakdown{
		CoreRatings: s.coreGap(teamA, teamB),
		Chemistry:   s.chemistryGap(teamA, teamB),
		Performance: s.performanceGap(teamA, teamB),
		Form:        s.formGap(teamA, teamB),
		Position:    s.positionGap(teamA, teamB),
		Attributes:  s.attributeGap(teamA, teamB),
	}
	b.Overall = s.weights.Core*b.CoreRatings +
		s.weights.Chemistry*b.Chemistry.Combined +
		s.weights.Performance*b.Performance +
		s.weights.Form*b.Form +
		s.weights.Position*b.Position +
		s.weights.Attributes*b.Attributes
	return b
}

func (s *Scorer) coreGap(teamA, teamB []types.PlayerRecord) float64 {
	gaps := 0.0
	for _, dim := range []func(types.PlayerRecord) float64{
		func(p types.PlayerRecord) float64 { return p.Attack },
		func(p types.PlayerRecord) float64 { return p.Defense },
		func(p types.PlayerRecord) float64 { return p.GameIQ },
		func(p types.PlayerRecord) float64 { return p.GK },
	} {
		gaps += math.Abs(teamMean(teamA, dim) - teamMean(teamB, dim))
	}
	// Four dimensions on a 0..10 scale, normalized to 0..1.
	return gaps / 4.0 / types.RatingMax
}

func (s *Scorer) chemistryGap(teamA, teamB []types.PlayerRecord) types.ChemistryBreakdown {
	cb := types.ChemistryBreakdown{}
	if len(s.chem) > 0 {
		cb.Pairwise = clamp01(math.Abs(intraPairMean(teamA, s.chem)-intraPairMean(teamB, s.chem)) / 2.0)
	}
	if len(s.rivalry) > 0 {
		cb.Rivalry = s.rivalryAdvantage(teamA, teamB)
	}
	if len(s.trio) > 0 {
		cb.Trio = clamp01(math.Abs(intraTrioMean(teamA, s.trio)-intraTrioMean(teamB, s.trio)) / 2.0)
	}
	cb.Combined = s.weights.ChemPairwise*cb.Pairwise +
		s.weights.ChemRivalry*cb.Rivalry +
		s.weights.ChemTrio*cb.Trio
	return cb
}

// rivalryAdvantage folds the signed cross-team rivalry edges into a net
// advantage for one side. Lookup values favor the lexicographically smaller
// id of the pair.
func (s *Scorer) rivalryAdvantage(teamA, teamB []types.PlayerRecord) float64 {
	net, count := 0.0, 0
	for _, a := range teamA {
		for _, b := range teamB {
			v, ok := s.rivalry[types.PairKey(a.ID, b.ID)]
			if !ok {
				continue
			}
			count++
			if a.ID < b.ID {
				net += v
			} else {
				net -= v
			}
		}
	}
	if count == 0 {
		return 0
	}
	return clamp01(math.Abs(net) / float64(count))
}

func (s *Scorer) performanceGap(teamA, teamB []types.PlayerRecord) float64 {
	winA, gdA, okA := reliableMeans(teamA, false)
	winB, gdB, okB := reliableMeans(teamB, false)
	if !okA || !okB {
		return 0
	}
	winGap := math.Abs(winA - winB)
	gdGap := clamp01(math.Abs(gdA-gdB) / 5.0)
	return 0.6*winGap + 0.4*gdGap
}

func (s *Scorer) formGap(teamA, teamB []types.PlayerRecord) float64 {
	winA, gdA, okA := reliableMeans(teamA, true)
	winB, gdB, okB := reliableMeans(teamB, true)
	if !okA || !okB {
		return 0
	}
	winGap := math.Abs(winA - winB)
	gdGap := clamp01(math.Abs(gdA-gdB) / 5.0)
	momGap := clamp01(math.Abs(momentumMean(teamA) - momentumMean(teamB)))
	return 0.5*winGap + 0.3*gdGap + 0.2*momGap
}

// positionGap compares the leaning mix of the two sides: attack-leaning vs
// defense-leaning player counts derived from raw ratings.
func (s *Scorer) positionGap(teamA, teamB []types.PlayerRecord) float64 {
	atkA, defA := leaningCounts(teamA)
	atkB, defB := leaningCounts(teamB)
	size := len(teamA)
	if len(teamB) > size {
		size = len(teamB)
	}
	if size == 0 {
		return 0
	}
	gap := float64(absInt(atkA-atkB)+absInt(defA-defB)) / float64(size)
	return clamp01(gap)
}

func (s *Scorer) attributeGap(teamA, teamB []types.PlayerRecord) float64 {
	meansA, okA := attributeMeans(teamA)
	meansB, okB := attributeMeans(teamB)
	if !okA || !okB {
		return 0
	}
	total := 0.0
	for i := range meansA {
		total += math.Abs(meansA[i] - meansB[i])
	}
	return clamp01(total / float64(len(meansA)))
}

// Helpers

func teamMean(team []types.PlayerRecord, key func(types.PlayerRecord) float64) float64 {
	if len(team) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range team {
		sum += key(p)
	}
	return sum / float64(len(team))
}

func intraPairMean(team []types.PlayerRecord, lookup types.ChemistryLookup) float64 {
	sum, count := 0.0, 0
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			if v, ok := lookup[types.PairKey(team[i].ID, team[j].ID)]; ok {
				sum += v
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func intraTrioMean(team []types.PlayerRecord, lookup types.TrioLookup) float64 {
	sum, count := 0.0, 0
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			for k := j + 1; k < len(team); k++ {
				if v, ok := lookup[types.TrioKey(team[i].ID, team[j].ID, team[k].ID)]; ok {
					sum += v
					count++
				}
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// reliableMeans averages win rate and goal diff over players with enough
// recorded games. ok is false when no player on the side qualifies.
func reliableMeans(team []types.PlayerRecord, recent bool) (win, gd float64, ok bool) {
	count := 0
	for _, p := range team {
		if !p.Stats.Reliable() {
			continue
		}
		count++
		if recent {
			win += p.Stats.RecentWinRate
			gd += p.Stats.RecentGoalDiff
		} else {
			win += p.Stats.OverallWinRate
			gd += p.Stats.OverallGoalDiff
		}
	}
	if count == 0 {
		return 0, 0, false
	}
	return win / float64(count), gd / float64(count), true
}

func momentumMean(team []types.PlayerRecord) float64 {
	sum, count := 0.0, 0
	for _, p := range team {
		if !p.Stats.Reliable() {
			continue
		}
		sum += p.Stats.RecentWinRate - p.Stats.OverallWinRate
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// leaningThreshold is the raw rating gap that marks a player as leaning
// toward one end of the pitch.
const leaningThreshold = 1.5

func leaningCounts(team []types.PlayerRecord) (attack, defense int) {
	for _, p := range team {
		switch {
		case p.Attack-p.Defense >= leaningThreshold:
			attack++
		case p.Defense-p.Attack >= leaningThreshold:
			defense++
		}
	}
	return attack, defense
}

func attributeMeans(team []types.PlayerRecord) ([6]float64, bool) {
	var sums [6]float64
	count := 0
	for _, p := range team {
		if p.Attributes == nil {
			continue
		}
		count++
		sums[0] += p.Attributes.Pace
		sums[1] += p.Attributes.Shooting
		sums[2] += p.Attributes.Passing
		sums[3] += p.Attributes.Dribbling
		sums[4] += p.Attributes.Defending
		sums[5] += p.Attributes.Physical
	}
	if count == 0 {
		return sums, false
	}
	for i := range sums {
		sums[i] /= float64(count)
	}
	return sums, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
