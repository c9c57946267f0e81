// Package pipeline wires the scoring-and-selection stages into one
// deterministic batch computation: merge, score, classify, allocate, select,
// aggregate. All state is request-scoped; two runs over identical inputs
// produce identical output.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auditops/planner/internal/budget"
	"github.com/auditops/planner/internal/merge"
	"github.com/auditops/planner/internal/plan"
	"github.com/auditops/planner/internal/report"
	"github.com/auditops/planner/internal/scoring"
)

// Request carries a full optimizer run's input: the parsed tabular records
// from the ingestion layer plus the caller's configuration. A zero-valued
// Weights falls back to the configured defaults.
type Request struct {
	BaseRows      []plan.Row            `json:"base_rows"`
	Sources       map[string][]plan.Row `json:"sources,omitempty"`
	Weights       scoring.WeightConfig  `json:"weights"`
	Parameters    []plan.ParameterRow   `json:"parameters"`
	GlobalMandays float64               `json:"global_mandays"`
	TierPolicy    string                `json:"tier_policy,omitempty"`
}

// Result is a run's complete output: the augmented entity table, the
// aggregated report, and every warning raised along the way. Warnings never
// abort a run; the worst case is an empty selection beside a fully-populated
// report.
type Result struct {
	RunID       uuid.UUID             `json:"run_id"`
	TierPolicy  string                `json:"tier_policy"`
	Entities    []*plan.Entity        `json:"entities"`
	SourcesUsed []merge.SourceUsage   `json:"sources_used,omitempty"`
	Buckets     []budget.BucketResult `json:"buckets,omitempty"`
	Report      *report.Report        `json:"report"`
	Warnings    []plan.Warning        `json:"warnings"`
}

// Planner runs the pipeline with configured defaults. Weight config is an
// explicit per-call argument; there is no process-wide mutable weight state.
type Planner struct {
	defaults scoring.WeightConfig
	fixed    scoring.FixedThresholdPolicy
	quantile scoring.QuantilePolicy
	logger   *slog.Logger
}

// New creates a Planner.
func New(defaults scoring.WeightConfig, fixed scoring.FixedThresholdPolicy, quantile scoring.QuantilePolicy, logger *slog.Logger) *Planner {
	return &Planner{defaults: defaults, fixed: fixed, quantile: quantile, logger: logger}
}

// Run executes the full pipeline. The only error is an unknown tier policy
// name; every other anomaly is reported as a warning beside the result.
func (p *Planner) Run(req Request) (*Result, error) {
	start := time.Now()

	res, policy, err := p.score(req)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	alloc, warns := budget.Allocate(req.GlobalMandays, req.Parameters)
	res.Warnings = append(res.Warnings, warns...)

	sel, warns := budget.Select(res.Entities, alloc)
	res.Warnings = append(res.Warnings, warns...)

	res.Buckets = sel.Buckets
	res.Report = report.Build(res.Entities, sel)

	runsTotal.WithLabelValues("ok").Inc()
	runDuration.Observe(time.Since(start).Seconds())
	lastUtilization.Set(res.Report.OverallUtilization)

	p.logger.Info("run complete",
		"run_id", res.RunID,
		"tier_policy", policy.Name(),
		"entities", len(res.Entities),
		"selected", res.Report.SelectedCount,
		"allocated", res.Report.MandaysAllocated,
		"used", res.Report.MandaysUsed,
		"utilization_pct", res.Report.OverallUtilization,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// Score runs merge, scoring, and classification only, producing the
// universe-wide risk summary without touching budgets. This backs the
// preview path: the caller sees ratings and tiers before committing to a
// selection run.
func (p *Planner) Score(req Request) (*Result, error) {
	res, _, err := p.score(req)
	if err != nil {
		return nil, err
	}
	res.Report = report.Build(res.Entities, budget.Selection{})
	return res, nil
}

func (p *Planner) score(req Request) (*Result, scoring.TierPolicy, error) {
	policy, err := scoring.PolicyFor(req.TierPolicy, p.fixed, p.quantile)
	if err != nil {
		return nil, nil, err
	}

	entities, usages, warnings := merge.Merge(req.BaseRows, req.Sources)

	weights := req.Weights
	if weights.IsZero() {
		weights = p.defaults
	}
	scorer := scoring.NewScorer(weights, p.logger)
	warnings = append(warnings, scorer.ScoreAll(entities)...)
	scoring.Classify(entities, policy)
	entitiesScored.Add(float64(len(entities)))

	if warnings == nil {
		warnings = []plan.Warning{}
	}
	return &Result{
		RunID:       uuid.New(),
		TierPolicy:  policy.Name(),
		Entities:    entities,
		SourcesUsed: usages,
		Warnings:    warnings,
	}, policy, nil
}
