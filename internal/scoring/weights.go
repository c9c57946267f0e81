package scoring

import (
	"fmt"
	"math"
)

// WeightConfig defines the relative importance of each enrichment metric.
// Weights should sum to 1.0 (±0.001 tolerance); an off-sum config still
// scores, on an implicit scale, and is surfaced as a warning by the caller.
type WeightConfig struct {
	NonStaffExpenditure float64 `json:"non_staff_expenditure" yaml:"non_staff_expenditure"`
	TotalExpenditure    float64 `json:"total_expenditure" yaml:"total_expenditure"`
	ParaCount           float64 `json:"para_count" yaml:"para_count"`
	ArrearYears         float64 `json:"arrear_years" yaml:"arrear_years"`
	SpecialPoints       float64 `json:"special_points" yaml:"special_points"`
	DCBillValue         float64 `json:"dc_bill_value" yaml:"dc_bill_value"`
	UCBillValue         float64 `json:"uc_bill_value" yaml:"uc_bill_value"`
	CSSFlag             float64 `json:"css_flag" yaml:"css_flag"`
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		NonStaffExpenditure: 0.20,
		TotalExpenditure:    0.20,
		ParaCount:           0.15,
		ArrearYears:         0.15,
		SpecialPoints:       0.05,
		DCBillValue:         0.10,
		UCBillValue:         0.10,
		CSSFlag:             0.05,
	}
}

// Sum returns the total of all weights.
func (w WeightConfig) Sum() float64 {
	var total float64
	for _, v := range w.asList() {
		total += v
	}
	return total
}

// IsZero reports whether every weight is zero, i.e. the config was omitted.
func (w WeightConfig) IsZero() bool {
	for _, v := range w.asList() {
		if v != 0 {
			return false
		}
	}
	return true
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightConfig) Validate() error {
	for _, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, expected 1.0", w.Sum())
	}
	return nil
}

func (w WeightConfig) asList() []float64 {
	return []float64{
		w.NonStaffExpenditure, w.TotalExpenditure, w.ParaCount, w.ArrearYears,
		w.SpecialPoints, w.DCBillValue, w.UCBillValue, w.CSSFlag,
	}
}
