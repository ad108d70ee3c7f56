package storage

import (
	"time"

	"github.com/pitchside/team-balancer/internal/types"
)

// PlayerRow is the persisted form of a league player. Rating columns are
// nullable; missing values fall back to the neutral rating when converted
// to an engine record.
type PlayerRow struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Attack        *float64   `json:"attack,omitempty"`
	Defense       *float64   `json:"defense,omitempty"`
	GameIQ        *float64   `gorm:"column:game_iq" json:"game_iq,omitempty"`
	GK            *float64   `gorm:"column:gk" json:"gk,omitempty"`
	IsPermanentGK bool       `gorm:"column:is_permanent_gk;default:false" json:"is_permanent_gk"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	Pace          *float64   `json:"pace,omitempty"`
	Shooting      *float64   `json:"shooting,omitempty"`
	Passing       *float64   `json:"passing,omitempty"`
	Dribbling     *float64   `json:"dribbling,omitempty"`
	Defending     *float64   `json:"defending,omitempty"`
	Physical      *float64   `json:"physical,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (PlayerRow) TableName() string {
	return "players"
}

// ToRecord converts a row plus its optional stats into the engine input.
func (r PlayerRow) ToRecord(stats *types.PerformanceStats) types.PlayerRecord {
	rec := types.PlayerRecord{
		ID:            r.ID,
		Name:          r.Name,
		Attack:        types.NormalizeRating(r.Attack),
		Defense:       types.NormalizeRating(r.Defense),
		GameIQ:        types.NormalizeRating(r.GameIQ),
		GK:            types.NormalizeRating(r.GK),
		IsPermanentGK: r.IsPermanentGK,
		Stats:         stats,
	}
	if r.Pace != nil || r.Shooting != nil || r.Passing != nil ||
		r.Dribbling != nil || r.Defending != nil || r.Physical != nil {
		rec.Attributes = &types.DerivedAttributes{
			Pace:      attrOrHalf(r.Pace),
			Shooting:  attrOrHalf(r.Shooting),
			Passing:   attrOrHalf(r.Passing),
			Dribbling: attrOrHalf(r.Dribbling),
			Defending: attrOrHalf(r.Defending),
			Physical:  attrOrHalf(r.Physical),
		}
	}
	return rec
}

func attrOrHalf(v *float64) float64 {
	if v == nil {
		return 0.5
	}
	return *v
}

// PlayerStatsRow aggregates a player's match history.
type PlayerStatsRow struct {
	PlayerID         string    `gorm:"primaryKey" json:"player_id"`
	OverallWinRate   float64   `json:"overall_win_rate"`
	RecentWinRate    float64   `json:"recent_win_rate"`
	OverallGoalDiff  float64   `json:"overall_goal_diff"`
	RecentGoalDiff   float64   `json:"recent_goal_diff"`
	TotalGamesPlayed int       `json:"total_games_played"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (PlayerStatsRow) TableName() string {
	return "player_stats"
}

func (r PlayerStatsRow) ToStats() *types.PerformanceStats {
	return &types.PerformanceStats{
		OverallWinRate:   r.OverallWinRate,
		RecentWinRate:    r.RecentWinRate,
		OverallGoalDiff:  r.OverallGoalDiff,
		RecentGoalDiff:   r.RecentGoalDiff,
		TotalGamesPlayed: r.TotalGamesPlayed,
	}
}

// ChemistryPairRow is an undirected pair edge with a -1..1 chemistry score.
type ChemistryPairRow struct {
	PlayerA string  `gorm:"primaryKey;column:player_a" json:"player_a"`
	PlayerB string  `gorm:"primaryKey;column:player_b" json:"player_b"`
	Score   float64 `gorm:"not null" json:"score"`
}

func (ChemistryPairRow) TableName() string {
	return "chemistry_pairs"
}

// RivalryRow is a signed edge. Score is the historical advantage of the
// lexicographically smaller player id.
type RivalryRow struct {
	PlayerA string  `gorm:"primaryKey;column:player_a" json:"player_a"`
	PlayerB string  `gorm:"primaryKey;column:player_b" json:"player_b"`
	Score   float64 `gorm:"not null" json:"score"`
}

func (RivalryRow) TableName() string {
	return "rivalries"
}

// TrioRow is a three-way chemistry edge.
type TrioRow struct {
	PlayerA string  `gorm:"primaryKey;column:player_a" json:"player_a"`
	PlayerB string  `gorm:"primaryKey;column:player_b" json:"player_b"`
	PlayerC string  `gorm:"primaryKey;column:player_c" json:"player_c"`
	Score   float64 `gorm:"not null" json:"score"`
}

func (TrioRow) TableName() string {
	return "chemistry_trios"
}

// BalanceRunRow records one balancing invocation for later review.
type BalanceRunRow struct {
	RunID                 string    `gorm:"primaryKey;column:run_id" json:"run_id"`
	Strategy              string    `gorm:"not null" json:"strategy"`
	PoolSize              int       `json:"pool_size"`
	Score                 float64   `json:"score"`
	TeamAIDs              string    `gorm:"column:team_a_ids" json:"team_a_ids"`
	TeamBIDs              string    `gorm:"column:team_b_ids" json:"team_b_ids"`
	CombinationsEvaluated int64     `json:"combinations_evaluated"`
	ComputeTimeMs         int64     `json:"compute_time_ms"`
	CreatedAt             time.Time `json:"created_at"`
}

func (BalanceRunRow) TableName() string {
	return "balance_runs"
}
