// Package report rolls selection results up into global, department-level,
// and section-level summaries. It only reads the upstream stages' output;
// nothing here mutates an entity.
package report

import (
	"math"
	"sort"

	"github.com/auditops/planner/internal/budget"
	"github.com/auditops/planner/internal/plan"
)

// DepartmentSummary is one department's allocation outcome.
type DepartmentSummary struct {
	Department       string                `json:"department"`
	MandaysAllocated float64               `json:"mandays_allocated"`
	MandaysUsed      float64               `json:"mandays_used"`
	Utilization      float64               `json:"utilization_pct"`
	SelectedCount    int                   `json:"selected_count"`
	SelectedByTier   map[plan.RiskTier]int `json:"selected_by_tier"`
}

// SectionRow counts selected entities per tier within one section.
type SectionRow struct {
	Section string `json:"section"`
	High    int    `json:"high"`
	Medium  int    `json:"medium"`
	Low     int    `json:"low"`
}

// RatingStats summarizes the rating distribution across the whole universe.
type RatingStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Report is the aggregated result of one optimizer run.
type Report struct {
	TotalEntities      int                   `json:"total_entities"`
	SelectedCount      int                   `json:"selected_count"`
	UnmatchedCount     int                   `json:"unmatched_count"`
	MandaysAllocated   float64               `json:"mandays_allocated"`
	MandaysUsed        float64               `json:"mandays_used"`
	OverallUtilization float64               `json:"overall_utilization_pct"`
	RatingStats        RatingStats           `json:"rating_stats"`
	UniverseBreakdown  map[plan.RiskTier]int `json:"universe_risk_breakdown"`
	SelectedBreakdown  map[plan.RiskTier]int `json:"selected_risk_breakdown"`
	Departments        []DepartmentSummary   `json:"department_summary"`
	Sections           []SectionRow          `json:"section_analysis"`
}

// Build aggregates a finished selection. It always returns a fully-populated
// report, even when nothing was selected, so downstream consumers can render
// a coherent (if empty) view.
func Build(entities []*plan.Entity, sel budget.Selection) *Report {
	r := &Report{
		TotalEntities:     len(entities),
		UnmatchedCount:    sel.UnmatchedCount,
		UniverseBreakdown: tierCounts(),
		SelectedBreakdown: tierCounts(),
	}

	sections := make(map[string]*SectionRow)
	for _, e := range entities {
		if e.Tier != "" {
			r.UniverseBreakdown[e.Tier]++
		}
		if !e.Selected {
			continue
		}
		r.SelectedCount++
		r.MandaysUsed += e.MandaysCost
		r.SelectedBreakdown[e.Tier]++

		section := e.Section
		if section == "" {
			section = "(none)"
		}
		row, ok := sections[section]
		if !ok {
			row = &SectionRow{Section: section}
			sections[section] = row
		}
		switch e.Tier {
		case plan.TierHigh:
			row.High++
		case plan.TierMedium:
			row.Medium++
		case plan.TierLow:
			row.Low++
		}
	}

	r.RatingStats = ratingStats(entities)
	r.Departments = departmentSummaries(sel.Buckets)
	for _, d := range r.Departments {
		r.MandaysAllocated += d.MandaysAllocated
	}
	r.OverallUtilization = UtilizationPct(r.MandaysUsed, r.MandaysAllocated)

	for _, row := range sections {
		r.Sections = append(r.Sections, *row)
	}
	sort.Slice(r.Sections, func(i, j int) bool { return r.Sections[i].Section < r.Sections[j].Section })

	return r
}

// UtilizationPct is used/allocated as a percentage rounded to two decimals,
// defined as 0 when nothing was allocated.
func UtilizationPct(used, allocated float64) float64 {
	if allocated <= 0 {
		return 0
	}
	return Round2(used / allocated * 100)
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func tierCounts() map[plan.RiskTier]int {
	counts := make(map[plan.RiskTier]int, len(plan.Tiers))
	for _, tier := range plan.Tiers {
		counts[tier] = 0
	}
	return counts
}

func ratingStats(entities []*plan.Entity) RatingStats {
	if len(entities) == 0 {
		return RatingStats{}
	}
	stats := RatingStats{Min: entities[0].Rating, Max: entities[0].Rating}
	var sum float64
	for _, e := range entities {
		if e.Rating < stats.Min {
			stats.Min = e.Rating
		}
		if e.Rating > stats.Max {
			stats.Max = e.Rating
		}
		sum += e.Rating
	}
	stats.Avg = sum / float64(len(entities))
	return stats
}

func departmentSummaries(buckets []budget.BucketResult) []DepartmentSummary {
	var order []string
	byDept := make(map[string]*DepartmentSummary)
	for _, b := range buckets {
		d, ok := byDept[b.Department]
		if !ok {
			d = &DepartmentSummary{
				Department:     b.Department,
				SelectedByTier: tierCounts(),
			}
			byDept[b.Department] = d
			order = append(order, b.Department)
		}
		d.MandaysAllocated += b.Budget
		d.MandaysUsed += b.MandaysUsed
		d.SelectedCount += b.SelectedCount
		d.SelectedByTier[b.Tier] += b.SelectedCount
	}

	summaries := make([]DepartmentSummary, 0, len(order))
	for _, name := range order {
		d := byDept[name]
		d.Utilization = UtilizationPct(d.MandaysUsed, d.MandaysAllocated)
		summaries = append(summaries, *d)
	}
	return summaries
}
