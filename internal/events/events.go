package events

import (
	"time"

	"github.com/auditops/planner/internal/plan"
)

// RunCompletedEvent announces a finished optimizer run with its headline
// numbers, so downstream consumers (dashboards, notifiers) can react without
// fetching the full result.
type RunCompletedEvent struct {
	RunID            string                `json:"run_id"`
	TierPolicy       string                `json:"tier_policy"`
	EntityCount      int                   `json:"entity_count"`
	SelectedCount    int                   `json:"selected_count"`
	MandaysAllocated float64               `json:"mandays_allocated"`
	MandaysUsed      float64               `json:"mandays_used"`
	UtilizationPct   float64               `json:"utilization_pct"`
	RiskBreakdown    map[plan.RiskTier]int `json:"risk_breakdown,omitempty"`
	WarningCount     int                   `json:"warning_count"`
	Timestamp        time.Time             `json:"timestamp"`
}

type RunFailedEvent struct {
	RunID     string    `json:"run_id,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RunScoredEvent announces a score-only preview run.
type RunScoredEvent struct {
	RunID         string                `json:"run_id"`
	EntityCount   int                   `json:"entity_count"`
	RiskBreakdown map[plan.RiskTier]int `json:"risk_breakdown,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}
