package types

import (
	"sort"
	"strings"
	"time"
)

// Rating scale bounds for the four core dimensions.
const (
	RatingMin     = 0.0
	RatingMax     = 10.0
	RatingNeutral = 5.0
)

// MinReliableGames is the number of recorded games below which a player's
// win-rate and goal-differential are excluded from performance comparisons.
const MinReliableGames = 10

// DerivedAttributes are optional playstyle attributes on a 0..1 scale,
// derived upstream from match events. A nil pointer on PlayerRecord means
// the player has no attribute data.
type DerivedAttributes struct {
	Pace      float64 `json:"pace"`
	Shooting  float64 `json:"shooting"`
	Passing   float64 `json:"passing"`
	Dribbling float64 `json:"dribbling"`
	Defending float64 `json:"defending"`
	Physical  float64 `json:"physical"`
}

// PerformanceStats are optional historical results for a player. Win rates
// are fractions in 0..1, goal differentials are per-game averages.
type PerformanceStats struct {
	OverallWinRate   float64 `json:"overall_win_rate"`
	RecentWinRate    float64 `json:"recent_win_rate"`
	OverallGoalDiff  float64 `json:"overall_goal_diff"`
	RecentGoalDiff   float64 `json:"recent_goal_diff"`
	TotalGamesPlayed int     `json:"total_games_played"`
}

// Reliable reports whether the stats cover enough games to be compared.
func (s *PerformanceStats) Reliable() bool {
	return s != nil && s.TotalGamesPlayed >= MinReliableGames
}

// PlayerRecord is the immutable engine input for one player. Ratings are on
// the 0..10 scale; callers substitute RatingNeutral for anything missing
// before the record reaches the engine (see NormalizeRating).
type PlayerRecord struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Attack        float64            `json:"attack"`
	Defense       float64            `json:"defense"`
	GameIQ        float64            `json:"game_iq"`
	GK            float64            `json:"gk"`
	Attributes    *DerivedAttributes `json:"attributes,omitempty"`
	Stats         *PerformanceStats  `json:"stats,omitempty"`
	IsPermanentGK bool               `json:"is_permanent_gk"`
}

// Overall is the mean of the three outfield rating dimensions.
func (p PlayerRecord) Overall() float64 {
	return (p.Attack + p.Defense + p.GameIQ) / 3.0
}

// NormalizeRating maps a possibly-missing rating to the engine scale.
func NormalizeRating(v *float64) float64 {
	if v == nil {
		return RatingNeutral
	}
	if *v < RatingMin {
		return RatingMin
	}
	if *v > RatingMax {
		return RatingMax
	}
	return *v
}

// Percentiles holds the interpolated percentile cuts for one dimension.
type Percentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// SkillDistribution describes one rating dimension across the whole pool.
// Lifetime is a single balancing invocation.
type SkillDistribution struct {
	Mean        float64     `json:"mean"`
	Median      float64     `json:"median"`
	StdDev      float64     `json:"std_dev"`
	Percentiles Percentiles `json:"percentiles"`
}

// PoolProfile bundles the pool-wide distributions per dimension plus the
// derived overall dimension.
type PoolProfile struct {
	Attack  SkillDistribution `json:"attack"`
	Defense SkillDistribution `json:"defense"`
	GameIQ  SkillDistribution `json:"game_iq"`
	Overall SkillDistribution `json:"overall"`
	Size    int               `json:"size"`
}

// Classification is the closed set of skill/role tiers a player can land in.
type Classification string

const (
	ClassElite           Classification = "ELITE"
	ClassSpecialistAtk   Classification = "SPECIALIST_ATK"
	ClassSpecialistDef   Classification = "SPECIALIST_DEF"
	ClassPlaymaker       Classification = "PLAYMAKER"
	ClassBalancedStrong  Classification = "BALANCED_STRONG"
	ClassBalancedAverage Classification = "BALANCED_AVERAGE"
	ClassBelowAverage    Classification = "BELOW_AVERAGE"
	ClassWeak            Classification = "WEAK"
	ClassVeryWeak        Classification = "VERY_WEAK"
	ClassUnplayable      Classification = "UNPLAYABLE"
)

// IsWeakGroup reports whether the tier counts against weak-player quotas.
func (c Classification) IsWeakGroup() bool {
	return c == ClassWeak || c == ClassVeryWeak || c == ClassUnplayable
}

// IsVeryWeakGroup reports whether the tier is in the bottom two bands.
func (c Classification) IsVeryWeakGroup() bool {
	return c == ClassVeryWeak || c == ClassUnplayable
}

// PlayerClassification pairs a tier with the rule that produced it. The
// reason is audit data only; correctness never depends on it.
type PlayerClassification struct {
	PlayerID string         `json:"player_id"`
	Class    Classification `json:"class"`
	Reason   string         `json:"reason"`
}

// Position is an on-pitch outfield position. The rotating goalkeeper is a
// roster convention, not an assigned position.
type Position string

const (
	PositionDEF Position = "DEF"
	PositionW   Position = "W"
	PositionCDM Position = "CDM"
	PositionCM  Position = "CM"
	PositionCAM Position = "CAM"
	PositionST  Position = "ST"
)

// AllPositions lists positions from back to front.
var AllPositions = []Position{PositionDEF, PositionCDM, PositionCM, PositionW, PositionCAM, PositionST}

// FormationTemplate is a catalogue entry sized to an outfield-player count.
type FormationTemplate struct {
	Name       string           `json:"name"`
	MinPlayers int              `json:"min_players"`
	MaxPlayers int              `json:"max_players"`
	Positions  map[Position]int `json:"positions"`
	Style      string           `json:"style"` // defensive, balanced, attacking
}

// OutfieldCount is the total number of position slots in the template.
func (t FormationTemplate) OutfieldCount() int {
	total := 0
	for _, n := range t.Positions {
		total += n
	}
	return total
}

// Strikers returns the template's striker count.
func (t FormationTemplate) Strikers() int { return t.Positions[PositionST] }

// Defenders returns DEF plus CDM slots.
func (t FormationTemplate) Defenders() int {
	return t.Positions[PositionDEF] + t.Positions[PositionCDM]
}

// CentralMidfield returns CM plus CDM slots.
func (t FormationTemplate) CentralMidfield() int {
	return t.Positions[PositionCM] + t.Positions[PositionCDM]
}

// PositionAssignment is one player's resolved pitch position.
type PositionAssignment struct {
	PlayerID     string     `json:"player_id"`
	PlayerName   string     `json:"player_name"`
	Position     Position   `json:"position"`
	Score        float64    `json:"score"`
	Natural      bool       `json:"natural"`
	Alternatives []Position `json:"alternatives,omitempty"`
}

// TeamPartition is a split of the pool into two sides. Invariant:
// disjoint, union equals the pool, sizes differ by at most one.
type TeamPartition struct {
	TeamA []PlayerRecord `json:"team_a"`
	TeamB []PlayerRecord `json:"team_b"`
}

// IDsA returns the sorted ids of side A.
func (p TeamPartition) IDsA() []string { return sortedIDs(p.TeamA) }

// IDsB returns the sorted ids of side B.
func (p TeamPartition) IDsB() []string { return sortedIDs(p.TeamB) }

func sortedIDs(players []PlayerRecord) []string {
	ids := make([]string, len(players))
	for i, pl := range players {
		ids[i] = pl.ID
	}
	sort.Strings(ids)
	return ids
}

// ChemistryLookup maps canonical pair keys to pairwise chemistry scores.
// Scores are in -1..1; missing entries are neutral.
type ChemistryLookup map[string]float64

// RivalryLookup maps canonical pair keys to signed rivalry edge. The value
// is the historical advantage of the lexicographically smaller id.
type RivalryLookup map[string]float64

// TrioLookup maps canonical triple keys to three-way chemistry scores.
type TrioLookup map[string]float64

// PairKey canonicalizes an unordered id pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// TrioKey canonicalizes an unordered id triple.
func TrioKey(a, b, c string) string {
	ids := []string{a, b, c}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// ChemistryBreakdown splits the chemistry component into its sub-gaps.
type ChemistryBreakdown struct {
	Pairwise float64 `json:"pairwise"`
	Rivalry  float64 `json:"rivalry"`
	Trio     float64 `json:"trio"`
	Combined float64 `json:"combined"`
}

// ScoreBreakdown is the weighted comparison of two candidate teams.
// Every component is a gap: zero means perfectly balanced, and the overall
// scalar follows the same convention across all balancers (lower is more
// balanced).
type ScoreBreakdown struct {
	CoreRatings float64            `json:"core_ratings"`
	Chemistry   ChemistryBreakdown `json:"chemistry"`
	Performance float64            `json:"performance"`
	Form        float64            `json:"form"`
	Position    float64            `json:"position"`
	Attributes  float64            `json:"attributes"`
	Overall     float64            `json:"overall"`
}

// Tier is a contiguous band of composite ratings used by the snake draft.
type Tier struct {
	Number    int      `json:"number"`
	MinRating float64  `json:"min_rating"`
	MaxRating float64  `json:"max_rating"`
	PlayerIDs []string `json:"player_ids"`
}

// Confidence labels attached to balancing and assignment results.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// TierDraftResult is the outcome of tier-based snake-draft balancing.
type TierDraftResult struct {
	TeamPartition
	Tiers          []Tier  `json:"tiers"`
	InitialScore   float64 `json:"initial_score"`
	OptimizedScore float64 `json:"optimized_score"`
	WasOptimized   bool    `json:"was_optimized"`
	SwapCount      int     `json:"swap_count"`
	Confidence     string  `json:"confidence"`
}

// BruteForceResult is the outcome of exhaustive constrained search.
// Exhaustive is false when the caller's budget expired and the best
// partition found so far was returned instead of the global optimum.
type BruteForceResult struct {
	TeamPartition
	BalanceScore          float64        `json:"balance_score"`
	Breakdown             ScoreBreakdown `json:"score_breakdown"`
	CombinationsEvaluated int64          `json:"combinations_evaluated"`
	ComputeTimeMs         int64          `json:"compute_time_ms"`
	Exhaustive            bool           `json:"exhaustive"`
}

// ProgressUpdate is pushed over the websocket hub while a long balancing
// run is in flight.
type ProgressUpdate struct {
	RunID     string    `json:"run_id"`
	Strategy  string    `json:"strategy"`
	Progress  float64   `json:"progress"` // 0.0 to 1.0
	Evaluated int64     `json:"evaluated"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard error payload for API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse is the standard success payload for API endpoints.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
