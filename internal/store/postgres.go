package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const runColumns = `run_id, created_at, tier_policy, global_mandays,
	entity_count, selected_count, mandays_allocated, mandays_used,
	utilization_pct, warnings, summary`

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	warningsJSON, _ := json.Marshal(run.Warnings)
	summaryJSON, _ := json.Marshal(run.Summary)

	return s.pool.QueryRow(ctx, `
		INSERT INTO planner_runs (run_id, tier_policy, global_mandays,
			entity_count, selected_count, mandays_allocated, mandays_used,
			utilization_pct, warnings, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		run.ID, run.TierPolicy, run.GlobalMandays,
		run.EntityCount, run.SelectedCount, run.MandaysAllocated, run.MandaysUsed,
		run.UtilizationPct, warningsJSON, summaryJSON,
	).Scan(&run.CreatedAt)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run := &Run{}
	var warningsJSON, summaryJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT `+runColumns+`
		FROM planner_runs WHERE run_id = $1`, id,
	).Scan(
		&run.ID, &run.CreatedAt, &run.TierPolicy, &run.GlobalMandays,
		&run.EntityCount, &run.SelectedCount, &run.MandaysAllocated, &run.MandaysUsed,
		&run.UtilizationPct, &warningsJSON, &summaryJSON,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if warningsJSON != nil {
		_ = json.Unmarshal(warningsJSON, &run.Warnings)
	}
	if summaryJSON != nil {
		_ = json.Unmarshal(summaryJSON, &run.Summary)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM planner_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var warningsJSON, summaryJSON []byte
		if err := rows.Scan(
			&run.ID, &run.CreatedAt, &run.TierPolicy, &run.GlobalMandays,
			&run.EntityCount, &run.SelectedCount, &run.MandaysAllocated, &run.MandaysUsed,
			&run.UtilizationPct, &warningsJSON, &summaryJSON,
		); err != nil {
			return nil, err
		}
		if warningsJSON != nil {
			_ = json.Unmarshal(warningsJSON, &run.Warnings)
		}
		if summaryJSON != nil {
			_ = json.Unmarshal(summaryJSON, &run.Summary)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(selected_count), 0),
			COALESCE(AVG(utilization_pct), 0),
			MAX(created_at)
		FROM planner_runs`,
	).Scan(&stats.TotalRuns, &stats.TotalSelected, &stats.AvgUtilizationPct, &stats.LastRunAt)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
