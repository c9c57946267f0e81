package scoring

import (
	"log/slog"

	"github.com/auditops/planner/internal/plan"
)

// metricDef binds one enrichment metric to its weight accessor. The eight
// metrics differ wildly in units (currency totals vs counts vs flags), so
// each is min–max scaled against the full dataset before weighting.
type metricDef struct {
	name   string
	value  func(*plan.Entity) *float64
	weight func(WeightConfig) float64
}

var metricDefs = []metricDef{
	{"non_staff_expenditure",
		func(e *plan.Entity) *float64 { return e.NonStaffExpenditure },
		func(w WeightConfig) float64 { return w.NonStaffExpenditure }},
	{"total_expenditure",
		func(e *plan.Entity) *float64 { return e.TotalExpenditure },
		func(w WeightConfig) float64 { return w.TotalExpenditure }},
	{"para_count",
		func(e *plan.Entity) *float64 { return e.ParaCount },
		func(w WeightConfig) float64 { return w.ParaCount }},
	{"arrear_years",
		func(e *plan.Entity) *float64 { return e.ArrearYears },
		func(w WeightConfig) float64 { return w.ArrearYears }},
	{"special_points",
		func(e *plan.Entity) *float64 { return e.SpecialPoints },
		func(w WeightConfig) float64 { return w.SpecialPoints }},
	{"dc_bill_value",
		func(e *plan.Entity) *float64 { return e.DCBillValue },
		func(w WeightConfig) float64 { return w.DCBillValue }},
	{"uc_bill_value",
		func(e *plan.Entity) *float64 { return e.UCBillValue },
		func(w WeightConfig) float64 { return w.UCBillValue }},
	{"css_flag",
		func(e *plan.Entity) *float64 { return e.CSSFlag },
		func(w WeightConfig) float64 { return w.CSSFlag }},
}

// Scorer computes the weighted composite rating for every entity. It is a
// pure transformation: ratings depend only on the entities' metric values
// and the weight config, never on selection state.
type Scorer struct {
	weights WeightConfig
	logger  *slog.Logger
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(weights WeightConfig, logger *slog.Logger) *Scorer {
	return &Scorer{weights: weights, logger: logger}
}

// ScoreAll assigns Rating to every entity. A missing metric contributes
// zero, so entities lacking optional source files are not penalized beyond
// the absent signal itself. Returned warnings cover weight miscalibration;
// scoring always completes.
func (s *Scorer) ScoreAll(entities []*plan.Entity) []plan.Warning {
	var warnings []plan.Warning
	if err := s.weights.Validate(); err != nil {
		warnings = append(warnings, plan.Warning{
			Code:    plan.WarnWeightSum,
			Message: "weight config: " + err.Error(),
		})
		s.logger.Warn("scoring with miscalibrated weights", "sum", s.weights.Sum())
	}

	for _, m := range metricDefs {
		lo, hi, any := metricRange(entities, m.value)
		if !any {
			continue
		}
		w := m.weight(s.weights)
		for _, e := range entities {
			if v := m.value(e); v != nil {
				e.Rating += w * normalize(*v, lo, hi)
			}
		}
	}
	return warnings
}

func metricRange(entities []*plan.Entity, value func(*plan.Entity) *float64) (lo, hi float64, any bool) {
	for _, e := range entities {
		v := value(e)
		if v == nil {
			continue
		}
		if !any || *v < lo {
			lo = *v
		}
		if !any || *v > hi {
			hi = *v
		}
		any = true
	}
	return lo, hi, any
}

// normalize scales v into [0,1] against the observed range. A degenerate
// range (all present values equal) maps nonzero values to 1 so a uniform
// flag still contributes its weight.
func normalize(v, lo, hi float64) float64 {
	if hi > lo {
		return (v - lo) / (hi - lo)
	}
	if v != 0 {
		return 1
	}
	return 0
}
