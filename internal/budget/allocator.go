// Package budget converts the global manday budget into per-department,
// per-tier ceilings and selects entities against them.
package budget

import (
	"fmt"
	"math"
	"strings"

	"github.com/auditops/planner/internal/plan"
)

// TierBudget is one (department, tier) ceiling with its per-entity cost.
type TierBudget struct {
	Mandays  float64 `json:"mandays"`
	UnitCost float64 `json:"unit_cost"`
}

// DepartmentBudget is one department's share of the global budget split
// across tiers.
type DepartmentBudget struct {
	Department string                       `json:"department"`
	Total      float64                      `json:"total"`
	Tiers      map[plan.RiskTier]TierBudget `json:"tiers"`
}

// Allocation is the full budget table for one run. It is computed once from
// the parameter rows and immutable afterward.
type Allocation struct {
	GlobalMandays float64
	Departments   map[string]*DepartmentBudget // keyed by normalized department name
	Order         []string                     // normalized keys in input order
}

// DeptKey normalizes a department name for matching between parameter rows
// and entities.
func DeptKey(department string) string {
	return strings.ToLower(strings.TrimSpace(department))
}

// Allocate computes the budget table. Department percentages are applied
// independently, with no renormalization, so partial coverage of the global
// budget is legal. Tier percentages that do not sum to 100 are likewise
// applied directly; the department's effective total may then under- or
// over-shoot its budget, which is reported as a warning rather than an
// error.
func Allocate(globalMandays float64, params []plan.ParameterRow) (*Allocation, []plan.Warning) {
	alloc := &Allocation{
		GlobalMandays: globalMandays,
		Departments:   make(map[string]*DepartmentBudget, len(params)),
	}
	var warnings []plan.Warning

	for _, row := range params {
		key := DeptKey(row.Department)
		if key == "" {
			continue
		}

		pctSum := row.HighPct + row.MedPct + row.LowPct
		if pctSum != 0 && math.Abs(pctSum-100) > 0.01 {
			warnings = append(warnings, plan.Warning{
				Code:       plan.WarnTierPctSum,
				Department: row.Department,
				Message:    fmt.Sprintf("tier percentages sum to %.2f, expected 100", pctSum),
			})
		}

		total := globalMandays * row.Percentage / 100
		dept := &DepartmentBudget{
			Department: strings.TrimSpace(row.Department),
			Total:      total,
			Tiers:      make(map[plan.RiskTier]TierBudget, len(plan.Tiers)),
		}
		for _, tier := range plan.Tiers {
			dept.Tiers[tier] = TierBudget{
				Mandays:  total * row.TierPct(tier) / 100,
				UnitCost: row.Days(tier),
			}
		}

		alloc.Departments[key] = dept
		alloc.Order = append(alloc.Order, key)
	}

	return alloc, warnings
}

// TotalAllocated sums every tier budget across departments.
func (a *Allocation) TotalAllocated() float64 {
	var total float64
	for _, dept := range a.Departments {
		for _, tb := range dept.Tiers {
			total += tb.Mandays
		}
	}
	return total
}
