package budget

import (
	"testing"

	"github.com/auditops/planner/internal/plan"
)

func forestParams() []plan.ParameterRow {
	return []plan.ParameterRow{{
		Department: "Forest",
		Percentage: 100,
		HighDays:   14,
		MediumDays: 10,
		LowDays:    7,
		HighPct:    40,
		MedPct:     40,
		LowPct:     20,
	}}
}

func TestAllocateSplitsGlobalBudget(t *testing.T) {
	alloc, warnings := Allocate(1000, forestParams())

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	dept := alloc.Departments["forest"]
	if dept == nil {
		t.Fatal("department not keyed by normalized name")
	}
	if dept.Total != 1000 {
		t.Errorf("Total = %f, want 1000", dept.Total)
	}

	tests := []struct {
		tier    plan.RiskTier
		mandays float64
		unit    float64
	}{
		{plan.TierHigh, 400, 14},
		{plan.TierMedium, 400, 10},
		{plan.TierLow, 200, 7},
	}
	for _, tt := range tests {
		tb := dept.Tiers[tt.tier]
		if tb.Mandays != tt.mandays || tb.UnitCost != tt.unit {
			t.Errorf("%s: got {%f %f}, want {%f %f}", tt.tier, tb.Mandays, tb.UnitCost, tt.mandays, tt.unit)
		}
	}
	if got := alloc.TotalAllocated(); got != 1000 {
		t.Errorf("TotalAllocated = %f, want 1000", got)
	}
}

func TestAllocateNoRenormalization(t *testing.T) {
	params := []plan.ParameterRow{
		{Department: "Health", Percentage: 30, HighPct: 40, MedPct: 40, LowPct: 20},
		{Department: "Roads", Percentage: 30, HighPct: 40, MedPct: 40, LowPct: 20},
	}
	alloc, warnings := Allocate(1000, params)

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	// 60% coverage of the global budget stays at 60%.
	if got := alloc.TotalAllocated(); got != 600 {
		t.Errorf("TotalAllocated = %f, want 600", got)
	}
}

func TestAllocateTierPctSumWarning(t *testing.T) {
	params := []plan.ParameterRow{
		{Department: "Health", Percentage: 50, HighPct: 50, MedPct: 30, LowPct: 30},
	}
	alloc, warnings := Allocate(1000, params)

	if len(warnings) != 1 || warnings[0].Code != plan.WarnTierPctSum {
		t.Fatalf("expected tier_pct_sum warning, got %v", warnings)
	}
	// Percentages are still applied directly: 110% of the department total.
	if got := alloc.Departments["health"].Tiers[plan.TierHigh].Mandays; got != 250 {
		t.Errorf("High mandays = %f, want 250", got)
	}
}

func TestAllocateAllZeroTierPctsStaySilent(t *testing.T) {
	params := []plan.ParameterRow{{Department: "Health", Percentage: 50}}
	_, warnings := Allocate(1000, params)
	if len(warnings) != 0 {
		t.Errorf("all-zero tier percentages should not warn, got %v", warnings)
	}
}

func TestAllocateSkipsBlankDepartment(t *testing.T) {
	params := []plan.ParameterRow{
		{Department: "  ", Percentage: 50},
		{Department: "Forest", Percentage: 50},
	}
	alloc, _ := Allocate(1000, params)
	if len(alloc.Departments) != 1 || len(alloc.Order) != 1 {
		t.Errorf("blank department row should be skipped: %v", alloc.Order)
	}
}

func TestDeptKey(t *testing.T) {
	if DeptKey("  Forest ") != "forest" {
		t.Errorf("DeptKey should trim and lowercase")
	}
}
