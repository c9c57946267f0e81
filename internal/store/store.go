package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/auditops/planner/internal/plan"
	"github.com/auditops/planner/internal/report"
)

// Run is one persisted optimizer run: the headline numbers plus the full
// summary and warning set, kept queryable for later review.
type Run struct {
	ID               uuid.UUID      `json:"run_id"`
	CreatedAt        time.Time      `json:"created_at"`
	TierPolicy       string         `json:"tier_policy"`
	GlobalMandays    float64        `json:"global_mandays"`
	EntityCount      int            `json:"entity_count"`
	SelectedCount    int            `json:"selected_count"`
	MandaysAllocated float64        `json:"mandays_allocated"`
	MandaysUsed      float64        `json:"mandays_used"`
	UtilizationPct   float64        `json:"utilization_pct"`
	Warnings         []plan.Warning `json:"warnings,omitempty"`
	Summary          *report.Report `json:"summary,omitempty"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Limit  int
	Offset int
}

// RunStats aggregates over the stored history.
type RunStats struct {
	TotalRuns         int        `json:"total_runs"`
	TotalSelected     int        `json:"total_selected"`
	AvgUtilizationPct float64    `json:"avg_utilization_pct"`
	LastRunAt         *time.Time `json:"last_run_at,omitempty"`
}

type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	GetStats(ctx context.Context) (*RunStats, error)

	Close() error
}
