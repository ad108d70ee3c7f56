package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/team-balancer/internal/types"
)

// Repository loads engine inputs and persists run summaries. All reads
// resolve to plain in-memory collections; the engine never touches the
// database itself.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// LoadPool fetches the active players identified by ids, joined with their
// aggregated stats. Unknown ids are an error so a balancing request never
// silently shrinks.
func (r *Repository) LoadPool(ctx context.Context, ids []string) ([]types.PlayerRecord, error) {
	var rows []PlayerRow
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if len(rows) != len(ids) {
		found := make(map[string]bool, len(rows))
		for _, row := range rows {
			found[row.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("unknown or inactive players: %s", strings.Join(missing, ", "))
	}

	var statRows []PlayerStatsRow
	if err := r.db.WithContext(ctx).
		Where("player_id IN ?", ids).
		Find(&statRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}
	statsByID := make(map[string]*types.PerformanceStats, len(statRows))
	for _, s := range statRows {
		statsByID[s.PlayerID] = s.ToStats()
	}

	pool := make([]types.PlayerRecord, 0, len(rows))
	for _, row := range rows {
		pool = append(pool, row.ToRecord(statsByID[row.ID]))
	}
	return pool, nil
}

// LoadChemistry returns the pairwise chemistry lookup restricted to the
// given pool.
func (r *Repository) LoadChemistry(ctx context.Context, ids []string) (types.ChemistryLookup, error) {
	var rows []ChemistryPairRow
	if err := r.db.WithContext(ctx).
		Where("player_a IN ? AND player_b IN ?", ids, ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load chemistry pairs: %w", err)
	}
	lookup := make(types.ChemistryLookup, len(rows))
	for _, row := range rows {
		lookup[types.PairKey(row.PlayerA, row.PlayerB)] = row.Score
	}
	return lookup, nil
}

// LoadRivalries returns the signed rivalry lookup restricted to the pool.
func (r *Repository) LoadRivalries(ctx context.Context, ids []string) (types.RivalryLookup, error) {
	var rows []RivalryRow
	if err := r.db.WithContext(ctx).
		Where("player_a IN ? AND player_b IN ?", ids, ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rivalries: %w", err)
	}
	lookup := make(types.RivalryLookup, len(rows))
	for _, row := range rows {
		lookup[types.PairKey(row.PlayerA, row.PlayerB)] = row.Score
	}
	return lookup, nil
}

// LoadTrios returns the three-way chemistry lookup restricted to the pool.
func (r *Repository) LoadTrios(ctx context.Context, ids []string) (types.TrioLookup, error) {
	var rows []TrioRow
	if err := r.db.WithContext(ctx).
		Where("player_a IN ? AND player_b IN ? AND player_c IN ?", ids, ids, ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load chemistry trios: %w", err)
	}
	lookup := make(types.TrioLookup, len(rows))
	for _, row := range rows {
		lookup[types.TrioKey(row.PlayerA, row.PlayerB, row.PlayerC)] = row.Score
	}
	return lookup, nil
}

// SaveBalanceRun persists a run summary for the history view.
func (r *Repository) SaveBalanceRun(ctx context.Context, runID, strategy string, partition types.TeamPartition, score float64, combos, computeMs int64) error {
	row := BalanceRunRow{
		RunID:                 runID,
		Strategy:              strategy,
		PoolSize:              len(partition.TeamA) + len(partition.TeamB),
		Score:                 score,
		TeamAIDs:              strings.Join(partition.IDsA(), ","),
		TeamBIDs:              strings.Join(partition.IDsB(), ","),
		CombinationsEvaluated: combos,
		ComputeTimeMs:         computeMs,
		CreatedAt:             time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save balance run: %w", err)
	}
	return nil
}

// RecentRuns lists the latest persisted run summaries.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]BalanceRunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []BalanceRunRow
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load balance runs: %w", err)
	}
	return rows, nil
}
