package plan

import "strings"

// Row is one already-parsed tabular record from the ingestion layer:
// column name to cell value. Workbook and transport concerns never reach
// this package.
type Row map[string]any

// RiskTier is the categorical risk class derived from an entity's rating.
type RiskTier string

const (
	TierHigh   RiskTier = "High"
	TierMedium RiskTier = "Medium"
	TierLow    RiskTier = "Low"
)

// Tiers lists all tiers from highest to lowest risk.
var Tiers = []RiskTier{TierHigh, TierMedium, TierLow}

// ParseTier normalizes a free-form tier label. Unknown labels return
// ("", false) so callers can route them to diagnostics instead of guessing.
func ParseTier(s string) (RiskTier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return TierHigh, true
	case "medium":
		return TierMedium, true
	case "low":
		return TierLow, true
	}
	return "", false
}

// Entity is one auditable unit. The eight metric fields are nullable: nil
// means the enrichment source was absent or carried no value for this
// entity, which the scorer treats as zero contribution.
type Entity struct {
	Code           string `json:"code"`
	SlNo           string `json:"sl_no,omitempty"`
	Name           string `json:"name,omitempty"`
	Department     string `json:"department"`
	Section        string `json:"section,omitempty"`
	Classification string `json:"classification,omitempty"`
	LastAudited    string `json:"last_audited,omitempty"`

	// Enrichment metrics
	NonStaffExpenditure *float64 `json:"non_staff_expenditure,omitempty"`
	TotalExpenditure    *float64 `json:"total_expenditure,omitempty"`
	ParaCount           *float64 `json:"para_count,omitempty"`
	ArrearYears         *float64 `json:"arrear_years,omitempty"`
	SpecialPoints       *float64 `json:"special_points,omitempty"`
	DCBillValue         *float64 `json:"dc_bill_value,omitempty"`
	UCBillValue         *float64 `json:"uc_bill_value,omitempty"`
	CSSFlag             *float64 `json:"css_flag,omitempty"`

	// Computed by the pipeline
	Rating      float64  `json:"rating"`
	Tier        RiskTier `json:"risk_tier,omitempty"`
	Selected    bool     `json:"selected"`
	MandaysCost float64  `json:"mandays_cost"`
}

// ParameterRow carries one department's budget parameters.
type ParameterRow struct {
	Department string  `json:"department"`
	Percentage float64 `json:"percentage"`
	HighDays   float64 `json:"high_days"`
	MediumDays float64 `json:"medium_days"`
	LowDays    float64 `json:"low_days"`
	HighPct    float64 `json:"high_pct"`
	MedPct     float64 `json:"med_pct"`
	LowPct     float64 `json:"low_pct"`
}

// Days returns the per-entity manday cost for a tier.
func (p ParameterRow) Days(tier RiskTier) float64 {
	switch tier {
	case TierHigh:
		return p.HighDays
	case TierMedium:
		return p.MediumDays
	default:
		return p.LowDays
	}
}

// TierPct returns the share of the department budget reserved for a tier.
func (p ParameterRow) TierPct(tier RiskTier) float64 {
	switch tier {
	case TierHigh:
		return p.HighPct
	case TierMedium:
		return p.MedPct
	default:
		return p.LowPct
	}
}

// Warning codes. Warnings never abort a run; they ride alongside the result.
const (
	WarnWeightSum           = "weight_sum"
	WarnTierPctSum          = "tier_pct_sum"
	WarnUnitCost            = "unit_cost"
	WarnUnmatchedDepartment = "unmatched_department"
	WarnEmptyDepartment     = "empty_department"
	WarnSourceColumn        = "source_column"
)

// Warning describes a configuration or data anomaly surfaced to the caller.
type Warning struct {
	Code       string `json:"code"`
	Department string `json:"department,omitempty"`
	Message    string `json:"message"`
}
