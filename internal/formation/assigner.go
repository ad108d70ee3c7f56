package formation

import (
	"fmt"
	"sort"

	"github.com/pitchside/team-balancer/internal/balancer"
	"github.com/pitchside/team-balancer/internal/types"
)

const (
	naturalWindow     = 0.5
	naturalMultiplier = 2.0
	floorPercentile   = 20.0
	swapGainThreshold = 0.5
	mismatchScore     = 4.0
	overfillAllowance = 1
)

// AssignmentResult is the resolved position map for one team.
type AssignmentResult struct {
	Assignments []types.PositionAssignment `json:"assignments"`
	Confidence  string                     `json:"confidence"`
	MeanScore   float64                    `json:"mean_score"`
	Warnings    []string                   `json:"warnings,omitempty"`
	Trace       []types.TraceRecord        `json:"trace,omitempty"`
}

// criticalFill orders critical slots for elite players, most pressing first.
var criticalFill = []types.Position{types.PositionST, types.PositionCDM, types.PositionCAM, types.PositionDEF}

// assignState tracks slot occupancy during the three phases.
type assignState struct {
	tmpl     types.FormationTemplate
	classes  map[string]types.PlayerClassification
	pool     []types.PlayerRecord
	assigned map[string]types.Position
	counts   map[types.Position]int

	atkValues []float64
	defValues []float64
}

// AssignPositions places every roster player into exactly one template slot.
// Classification percentiles are computed against the whole pool, not the
// roster, so both teams see the same scale.
func AssignPositions(team, pool []types.PlayerRecord, tmpl types.FormationTemplate) (*AssignmentResult, error) {
	if len(team) < 2 {
		return nil, balancer.ErrInsufficientPlayers
	}
	_, classes, err := balancer.ClassifyPool(pool)
	if err != nil {
		return nil, err
	}

	st := newAssignState(team, pool, tmpl, classes)
	trace := &types.Trace{}

	// Every roster player gets a slot. With a rotating keeper the roster
	// carries one more body than the template; wide and central midfield
	// absorb the spare through their overfill allowance.
	roster := make([]types.PlayerRecord, len(team))
	copy(roster, team)
	sort.Slice(roster, func(i, j int) bool {
		oi, oj := roster[i].Overall(), roster[j].Overall()
		if oi != oj {
			return oi > oj
		}
		return roster[i].ID < roster[j].ID
	})

	st.lockSpecialists(roster, trace)
	st.greedyFill(roster, trace)
	st.forcePlace(roster, trace)

	for _, p := range roster {
		if _, ok := st.assigned[p.ID]; !ok {
			panic(fmt.Sprintf("player %s unassigned after forced placement", p.ID))
		}
	}

	warnings := st.optimize(roster, trace)

	result := st.buildResult(roster, warnings, trace)
	return result, nil
}

func newAssignState(team, pool []types.PlayerRecord, tmpl types.FormationTemplate, classes map[string]types.PlayerClassification) *assignState {
	st := &assignState{
		tmpl:     tmpl,
		classes:  classes,
		pool:     pool,
		assigned: make(map[string]types.Position, len(team)),
		counts:   make(map[types.Position]int, len(tmpl.Positions)),
	}
	st.atkValues = make([]float64, len(pool))
	st.defValues = make([]float64, len(pool))
	for i, p := range pool {
		st.atkValues[i] = p.Attack
		st.defValues[i] = p.Defense
	}
	return st
}

func (st *assignState) class(id string) types.Classification {
	return st.classes[id].Class
}

func (st *assignState) capacity(pos types.Position, overfill bool) int {
	limit := st.tmpl.Positions[pos]
	if overfill && (pos == types.PositionW || pos == types.PositionCM) {
		limit += overfillAllowance
	}
	return limit
}

func (st *assignState) hasRoom(pos types.Position, overfill bool) bool {
	return st.counts[pos] < st.capacity(pos, overfill)
}

func (st *assignState) place(p types.PlayerRecord, pos types.Position) {
	st.assigned[p.ID] = pos
	st.counts[pos]++
}

// basePositionScore blends the three rating dimensions per position on the
// 0..10 scale, then nudges by derived attributes when present.
func basePositionScore(p types.PlayerRecord, pos types.Position) float64 {
	var score float64
	switch pos {
	case types.PositionST:
		score = p.Attack
	case types.PositionCAM:
		score = 0.6*p.Attack + 0.4*p.GameIQ
	case types.PositionW:
		score = 0.5*p.Attack + 0.3*p.GameIQ + 0.2*p.Defense
	case types.PositionCM:
		score = 0.5*p.GameIQ + 0.25*p.Attack + 0.25*p.Defense
	case types.PositionCDM:
		score = 0.6*p.Defense + 0.4*p.GameIQ
	case types.PositionDEF:
		score = p.Defense
	}
	return score + attributeBonus(p, pos)
}

// attributeBonus shifts the score by at most one point either way.
func attributeBonus(p types.PlayerRecord, pos types.Position) float64 {
	a := p.Attributes
	if a == nil {
		return 0
	}
	var v float64
	switch pos {
	case types.PositionST:
		v = a.Shooting
	case types.PositionCAM:
		v = 0.5*a.Passing + 0.5*a.Dribbling
	case types.PositionW:
		v = 0.5*a.Pace + 0.5*a.Dribbling
	case types.PositionCM:
		v = a.Passing
	case types.PositionCDM:
		v = 0.5*a.Defending + 0.5*a.Physical
	case types.PositionDEF:
		v = a.Defending
	}
	return (v - 0.5) * 2.0
}

// naturalPositions returns the positions scoring within naturalWindow of the
// player's best position.
func naturalPositions(p types.PlayerRecord) map[types.Position]bool {
	best := 0.0
	scores := make(map[types.Position]float64, len(types.AllPositions))
	for _, pos := range types.AllPositions {
		s := basePositionScore(p, pos)
		scores[pos] = s
		if s > best {
			best = s
		}
	}
	natural := make(map[types.Position]bool)
	for pos, s := range scores {
		if best-s <= naturalWindow {
			natural[pos] = true
		}
	}
	return natural
}

func classificationMultiplier(c types.Classification) float64 {
	switch c {
	case types.ClassElite:
		return 1.3
	case types.ClassSpecialistAtk, types.ClassSpecialistDef:
		return 1.2
	case types.ClassPlaymaker:
		return 1.15
	case types.ClassBalancedStrong:
		return 1.1
	case types.ClassBelowAverage:
		return 0.9
	case types.ClassWeak:
		return 0.8
	case types.ClassVeryWeak:
		return 0.6
	case types.ClassUnplayable:
		return 0.4
	default:
		return 1.0
	}
}

// blocked reports whether a pairing is excluded outright by rating profile.
func blocked(p types.PlayerRecord, pos types.Position) bool {
	switch pos {
	case types.PositionDEF:
		return p.Attack > p.Defense+2.5
	case types.PositionST:
		return p.Defense > p.Attack+2.5
	case types.PositionCDM:
		return p.Attack > p.Defense+2 && p.Defense < 6
	}
	return false
}

func isCritical(pos types.Position) bool {
	return pos == types.PositionST || pos == types.PositionCDM || pos == types.PositionDEF
}

// quotaAllows caps how many weak-tier players a position may absorb.
// Critical attacking and pivot slots accept a single WEAK player only when
// the rest of the roster carries no very-weak players at all.
func (st *assignState) quotaAllows(roster []types.PlayerRecord, p types.PlayerRecord, pos types.Position) bool {
	c := st.class(p.ID)
	if !c.IsWeakGroup() {
		return true
	}
	weakAt, veryWeakAt := st.weakCountsAt(pos)
	switch pos {
	case types.PositionST, types.PositionCAM, types.PositionCDM:
		if c.IsVeryWeakGroup() {
			return false
		}
		return weakAt < 1 && st.rosterVeryWeakCount(roster) == 0
	case types.PositionDEF:
		if c.IsVeryWeakGroup() {
			return veryWeakAt < 1
		}
		return true
	case types.PositionCM:
		if c.IsVeryWeakGroup() {
			return veryWeakAt < 2
		}
		return weakAt < 2
	}
	return true // W absorbs anyone
}

func (st *assignState) weakCountsAt(pos types.Position) (weak, veryWeak int) {
	for id, assignedPos := range st.assigned {
		if assignedPos != pos {
			continue
		}
		switch c := st.class(id); {
		case c.IsVeryWeakGroup():
			veryWeak++
		case c == types.ClassWeak:
			weak++
		}
	}
	return weak, veryWeak
}

func (st *assignState) rosterVeryWeakCount(roster []types.PlayerRecord) int {
	n := 0
	for _, p := range roster {
		if st.class(p.ID).IsVeryWeakGroup() {
			n++
		}
	}
	return n
}

// lockSpecialists is phase 1: elites and specialists claim critical slots
// before the scored fill runs.
func (st *assignState) lockSpecialists(roster []types.PlayerRecord, trace *types.Trace) {
	type prioritized struct {
		player types.PlayerRecord
		rank   int
	}
	var locks []prioritized
	for _, p := range roster {
		switch st.class(p.ID) {
		case types.ClassElite:
			locks = append(locks, prioritized{p, 0})
		case types.ClassSpecialistAtk, types.ClassSpecialistDef:
			locks = append(locks, prioritized{p, 1})
		case types.ClassPlaymaker:
			locks = append(locks, prioritized{p, 2})
		}
	}
	sort.Slice(locks, func(i, j int) bool {
		if locks[i].rank != locks[j].rank {
			return locks[i].rank < locks[j].rank
		}
		oi, oj := locks[i].player.Overall(), locks[j].player.Overall()
		if oi != oj {
			return oi > oj
		}
		return locks[i].player.ID < locks[j].player.ID
	})

	for _, l := range locks {
		p := l.player
		var targets []types.Position
		switch st.class(p.ID) {
		case types.ClassElite:
			targets = criticalFill
		case types.ClassSpecialistAtk:
			targets = []types.Position{types.PositionST}
		case types.ClassSpecialistDef:
			targets = []types.Position{types.PositionCDM, types.PositionDEF}
		case types.ClassPlaymaker:
			targets = []types.Position{types.PositionCAM, types.PositionCM}
		}
		for _, pos := range targets {
			if st.hasRoom(pos, false) && !blocked(p, pos) {
				st.place(p, pos)
				trace.Add("assign", p.Name, "locked", fmt.Sprintf("%s as %s", pos, st.class(p.ID)))
				break
			}
		}
	}
}

// greedyFill is phase 2: score every remaining pairing and fill best-first.
func (st *assignState) greedyFill(roster []types.PlayerRecord, trace *types.Trace) {
	type candidate struct {
		player   types.PlayerRecord
		pos      types.Position
		natural  bool
		suitable bool
		score    float64
	}
	var cands []candidate
	for _, p := range roster {
		if _, done := st.assigned[p.ID]; done {
			continue
		}
		natural := naturalPositions(p)
		mult := classificationMultiplier(st.class(p.ID))
		for _, pos := range types.AllPositions {
			if st.tmpl.Positions[pos] == 0 || blocked(p, pos) {
				continue
			}
			base := basePositionScore(p, pos)
			adj := base * mult
			if natural[pos] {
				adj *= naturalMultiplier
			}
			cands = append(cands, candidate{
				player:   p,
				pos:      pos,
				natural:  natural[pos],
				suitable: !isCritical(pos) || base >= 5.0,
				score:    adj,
			})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.natural != b.natural {
			return a.natural
		}
		if a.suitable != b.suitable {
			return a.suitable
		}
		if a.score != b.score {
			return a.score > b.score
		}
		if a.player.ID != b.player.ID {
			return a.player.ID < b.player.ID
		}
		return a.pos < b.pos
	})
	for _, c := range cands {
		if _, done := st.assigned[c.player.ID]; done {
			continue
		}
		if !st.hasRoom(c.pos, false) || !st.quotaAllows(roster, c.player, c.pos) {
			continue
		}
		st.place(c.player, c.pos)
	}
}

// forcePlace is phase 3: quota-free placement driven by pool percentiles.
// Floor percentiles on critical positions still hold.
func (st *assignState) forcePlace(roster []types.PlayerRecord, trace *types.Trace) {
	for _, p := range roster {
		if _, done := st.assigned[p.ID]; done {
			continue
		}
		atkPct := percentRank(p.Attack, st.atkValues)
		defPct := percentRank(p.Defense, st.defValues)

		var prefs []types.Position
		switch {
		case atkPct < 40 && defPct < 40:
			prefs = []types.Position{types.PositionW, types.PositionCM}
		case atkPct >= defPct:
			prefs = []types.Position{types.PositionST, types.PositionCAM, types.PositionW}
		default:
			prefs = []types.Position{types.PositionDEF, types.PositionCDM, types.PositionCM}
		}

		placed := false
		for _, pos := range prefs {
			if !st.hasRoom(pos, false) || blocked(p, pos) {
				continue
			}
			if !st.clearsFloor(pos, atkPct, defPct) {
				continue
			}
			st.place(p, pos)
			trace.Add("assign", p.Name, "forced", string(pos))
			placed = true
			break
		}
		if placed {
			continue
		}

		// Last resort: W or CM, whichever has more relative room, with one
		// slot of overfill allowed.
		pos := st.overflowTarget()
		if pos == "" {
			panic(fmt.Sprintf("no overflow capacity left for player %s", p.ID))
		}
		st.place(p, pos)
		trace.Add("assign", p.Name, "overflow", string(pos))
	}
}

func (st *assignState) clearsFloor(pos types.Position, atkPct, defPct float64) bool {
	switch pos {
	case types.PositionST:
		return atkPct >= floorPercentile
	case types.PositionDEF, types.PositionCDM:
		return defPct >= floorPercentile
	}
	return true
}

func (st *assignState) overflowTarget() types.Position {
	wRoom := st.capacity(types.PositionW, true) - st.counts[types.PositionW]
	cmRoom := st.capacity(types.PositionCM, true) - st.counts[types.PositionCM]
	if wRoom <= 0 && cmRoom <= 0 {
		return ""
	}
	wRel := relativeRoom(wRoom, st.capacity(types.PositionW, true))
	cmRel := relativeRoom(cmRoom, st.capacity(types.PositionCM, true))
	if cmRoom > 0 && (wRoom <= 0 || cmRel > wRel) {
		return types.PositionCM
	}
	return types.PositionW
}

func relativeRoom(room, cap int) float64 {
	if cap == 0 {
		return 0
	}
	return float64(room) / float64(cap)
}

// optimize runs the post-assignment repair pass and returns warnings.
func (st *assignState) optimize(roster []types.PlayerRecord, trace *types.Trace) []string {
	byID := make(map[string]types.PlayerRecord, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	// Emergency removal: very-weak players do not hold ST or CDM.
	for _, p := range roster {
		pos := st.assigned[p.ID]
		if pos != types.PositionST && pos != types.PositionCDM {
			continue
		}
		if !st.class(p.ID).IsVeryWeakGroup() {
			continue
		}
		for _, dst := range []types.Position{types.PositionW, types.PositionCM} {
			if st.hasRoom(dst, true) {
				st.counts[pos]--
				st.place(p, dst)
				trace.Add("optimize", p.Name, "relocated", fmt.Sprintf("%s to %s", pos, dst))
				break
			}
		}
	}

	// Beneficial swaps: weak or mismatched players in critical slots trade
	// with a wide or central midfielder when both sides come out ahead.
	swapped := make(map[string]bool)
	for _, p := range roster {
		id := p.ID
		pos := st.assigned[id]
		if !isCritical(pos) || swapped[id] {
			continue
		}
		c := st.class(id)
		score := basePositionScore(p, pos)
		if c != types.ClassWeak && c != types.ClassBelowAverage && score >= mismatchScore {
			continue
		}
		best, bestGain := "", 0.0
		for _, other := range roster {
			otherID := other.ID
			otherPos := st.assigned[otherID]
			if otherPos != types.PositionW && otherPos != types.PositionCM {
				continue
			}
			if swapped[otherID] {
				continue
			}
			if blocked(other, pos) || blocked(p, otherPos) {
				continue
			}
			otherAtk := percentRank(other.Attack, st.atkValues)
			otherDef := percentRank(other.Defense, st.defValues)
			if !st.clearsFloor(pos, otherAtk, otherDef) {
				continue
			}
			gain := basePositionScore(other, pos) + basePositionScore(p, otherPos) -
				score - basePositionScore(other, otherPos)
			if gain > bestGain {
				best, bestGain = otherID, gain
			}
		}
		if best != "" && bestGain > swapGainThreshold {
			otherPos := st.assigned[best]
			st.assigned[id], st.assigned[best] = otherPos, pos
			swapped[id], swapped[best] = true, true
			trace.Add("optimize", p.Name, "swapped", fmt.Sprintf("with %s (%s<->%s)", byID[best].Name, pos, otherPos))
		}
	}

	var warnings []string
	for _, pos := range types.AllPositions {
		weak, veryWeak := st.weakCountsAt(pos)
		if over := st.weakOverQuota(pos, weak, veryWeak); over {
			warnings = append(warnings, fmt.Sprintf("%s carries more weak players than its quota allows", pos))
		}
	}
	return warnings
}

func (st *assignState) weakOverQuota(pos types.Position, weak, veryWeak int) bool {
	switch pos {
	case types.PositionST, types.PositionCAM, types.PositionCDM:
		return veryWeak > 0 || weak > 1
	case types.PositionDEF:
		return veryWeak > 1
	case types.PositionCM:
		return veryWeak > 2 || weak > 2
	}
	return false
}

func (st *assignState) buildResult(roster []types.PlayerRecord, warnings []string, trace *types.Trace) *AssignmentResult {
	assignments := make([]types.PositionAssignment, 0, len(roster))
	total := 0.0
	for _, p := range roster {
		pos := st.assigned[p.ID]
		score := basePositionScore(p, pos)
		total += score
		assignments = append(assignments, types.PositionAssignment{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			Position:     pos,
			Score:        score,
			Natural:      naturalPositions(p)[pos],
			Alternatives: alternativesFor(p, pos),
		})
	}
	mean := 0.0
	if len(assignments) > 0 {
		mean = total / float64(len(assignments))
	}

	filled := true
	for _, pos := range types.AllPositions {
		if st.counts[pos] < st.tmpl.Positions[pos] {
			filled = false
			break
		}
	}
	confidence := types.ConfidenceLow
	switch {
	case filled && mean >= 5.5:
		confidence = types.ConfidenceHigh
	case filled && mean >= 4.5, float64(len(assignments)) >= 0.8*float64(len(roster)) && mean >= 4.0:
		confidence = types.ConfidenceMedium
	}

	return &AssignmentResult{
		Assignments: assignments,
		Confidence:  confidence,
		MeanScore:   mean,
		Warnings:    warnings,
		Trace:       trace.Records,
	}
}

// alternativesFor lists up to two other non-blocked positions by fit.
func alternativesFor(p types.PlayerRecord, current types.Position) []types.Position {
	type alt struct {
		pos   types.Position
		score float64
	}
	var alts []alt
	for _, pos := range types.AllPositions {
		if pos == current || blocked(p, pos) {
			continue
		}
		alts = append(alts, alt{pos, basePositionScore(p, pos)})
	}
	sort.Slice(alts, func(i, j int) bool {
		if alts[i].score != alts[j].score {
			return alts[i].score > alts[j].score
		}
		return alts[i].pos < alts[j].pos
	})
	if len(alts) > 2 {
		alts = alts[:2]
	}
	out := make([]types.Position, len(alts))
	for i, a := range alts {
		out[i] = a.pos
	}
	return out
}

// percentRank is the fraction of values strictly below v plus half the ties,
// expressed 0..100.
func percentRank(v float64, values []float64) float64 {
	if len(values) == 0 {
		return 50
	}
	below, ties := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			below++
		case x == v:
			ties++
		}
	}
	return 100 * (float64(below) + float64(ties)/2) / float64(len(values))
}
