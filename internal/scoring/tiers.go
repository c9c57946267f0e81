package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/auditops/planner/internal/plan"
)

// TierPolicy converts the run's rating distribution into two ordered cut
// points. Ratings at or below lowMax classify Low, at or below mediumMax
// classify Medium, above it High — so a boundary tie always resolves to the
// lower-risk tier. The rule itself is policy, not hard-coded: fixed
// thresholds and distribution-relative quantiles are both supported.
type TierPolicy interface {
	Name() string
	Cutpoints(ratings []float64) (lowMax, mediumMax float64)
}

// FixedThresholdPolicy classifies against fixed rating cut points. With a
// weight config summing to 1 ratings live on a stable [0,1] scale, so fixed
// cuts are reproducible across runs regardless of the universe.
type FixedThresholdPolicy struct {
	LowMax    float64
	MediumMax float64
}

// DefaultFixedPolicy returns the standard threshold bands.
func DefaultFixedPolicy() FixedThresholdPolicy {
	return FixedThresholdPolicy{LowMax: 0.45, MediumMax: 0.70}
}

func (p FixedThresholdPolicy) Name() string { return "fixed" }

func (p FixedThresholdPolicy) Cutpoints([]float64) (float64, float64) {
	return p.LowMax, p.MediumMax
}

// QuantilePolicy derives cut points from the observed rating distribution,
// for callers that want relative tiers rather than absolute ones.
type QuantilePolicy struct {
	LowQuantile    float64
	MediumQuantile float64
}

// DefaultQuantilePolicy puts the bottom half in Low and the top 15% in High.
func DefaultQuantilePolicy() QuantilePolicy {
	return QuantilePolicy{LowQuantile: 0.50, MediumQuantile: 0.85}
}

func (p QuantilePolicy) Name() string { return "quantile" }

func (p QuantilePolicy) Cutpoints(ratings []float64) (float64, float64) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(ratings))
	copy(sorted, ratings)
	sort.Float64s(sorted)
	return quantile(sorted, p.LowQuantile), quantile(sorted, p.MediumQuantile)
}

// quantile interpolates linearly between order statistics.
func quantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	i := int(math.Floor(pos))
	frac := pos - float64(i)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// PolicyFor resolves a policy by name. An empty kind yields the default
// fixed policy.
func PolicyFor(kind string, fixed FixedThresholdPolicy, quant QuantilePolicy) (TierPolicy, error) {
	switch kind {
	case "", "fixed":
		return fixed, nil
	case "quantile":
		return quant, nil
	}
	return nil, fmt.Errorf("unknown tier policy %q", kind)
}

// Classify assigns a RiskTier to every entity from its rating. The mapping
// is monotonic: a strictly higher rating never yields a lower-risk tier.
func Classify(entities []*plan.Entity, policy TierPolicy) {
	ratings := make([]float64, len(entities))
	for i, e := range entities {
		ratings[i] = e.Rating
	}
	lowMax, mediumMax := policy.Cutpoints(ratings)

	for _, e := range entities {
		switch {
		case e.Rating <= lowMax:
			e.Tier = plan.TierLow
		case e.Rating <= mediumMax:
			e.Tier = plan.TierMedium
		default:
			e.Tier = plan.TierHigh
		}
	}
}
