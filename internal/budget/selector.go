package budget

import (
	"fmt"
	"sort"
	"sync"

	"github.com/auditops/planner/internal/plan"
)

// BucketResult reports the outcome of selection within one
// (department, tier) bucket.
type BucketResult struct {
	Department    string        `json:"department"`
	Tier          plan.RiskTier `json:"tier"`
	Budget        float64       `json:"budget"`
	UnitCost      float64       `json:"unit_cost"`
	PoolSize      int           `json:"pool_size"`
	SelectedCount int           `json:"selected_count"`
	MandaysUsed   float64       `json:"mandays_used"`
}

// Selection is the selector's full output: per-bucket results plus the
// entities that could not enter any bucket.
type Selection struct {
	Buckets        []BucketResult `json:"buckets"`
	UnmatchedCount int            `json:"unmatched_count"`
}

// Select runs greedy selection in every (department, tier) bucket, mutating
// Selected and MandaysCost on the entities. Entities whose department has no
// parameter row are unselectable and reported under an unmatched-department
// warning instead of being silently dropped.
//
// Buckets are independent, so they run concurrently; each goroutine touches
// only its own bucket's entities and its own result slot, which keeps the
// output byte-identical across runs.
func Select(entities []*plan.Entity, alloc *Allocation) (Selection, []plan.Warning) {
	var warnings []plan.Warning

	byDept := make(map[string][]*plan.Entity)
	for _, e := range entities {
		byDept[DeptKey(e.Department)] = append(byDept[DeptKey(e.Department)], e)
	}

	// Unmatched departments: scored and tiered, never budgeted.
	sel := Selection{}
	unmatchedNames := make(map[string]bool)
	for key, pool := range byDept {
		if _, ok := alloc.Departments[key]; ok {
			continue
		}
		sel.UnmatchedCount += len(pool)
		name := pool[0].Department
		if name == "" {
			name = "(blank)"
		}
		if !unmatchedNames[name] {
			unmatchedNames[name] = true
			warnings = append(warnings, plan.Warning{
				Code:       plan.WarnUnmatchedDepartment,
				Department: name,
				Message:    fmt.Sprintf("%d entities have no matching parameter row", len(pool)),
			})
		}
	}

	type bucketJob struct {
		result BucketResult
		pool   []*plan.Entity
	}

	var jobs []bucketJob
	for _, key := range alloc.Order {
		dept := alloc.Departments[key]
		pool := byDept[key]
		if len(pool) == 0 {
			if dept.Total > 0 {
				warnings = append(warnings, plan.Warning{
					Code:       plan.WarnEmptyDepartment,
					Department: dept.Department,
					Message:    "no matching entities in the audit universe",
				})
			}
			// Keep the empty buckets so allocated mandays still report.
		}
		for _, tier := range plan.Tiers {
			tb := dept.Tiers[tier]
			var tierPool []*plan.Entity
			for _, e := range pool {
				if e.Tier == tier {
					tierPool = append(tierPool, e)
				}
			}
			if tb.UnitCost <= 0 && tb.Mandays > 0 && len(tierPool) > 0 {
				warnings = append(warnings, plan.Warning{
					Code:       plan.WarnUnitCost,
					Department: dept.Department,
					Message:    fmt.Sprintf("%s tier has unit cost %.2f, nothing selected", tier, tb.UnitCost),
				})
			}
			jobs = append(jobs, bucketJob{
				result: BucketResult{
					Department: dept.Department,
					Tier:       tier,
					Budget:     tb.Mandays,
					UnitCost:   tb.UnitCost,
					PoolSize:   len(tierPool),
				},
				pool: tierPool,
			})
		}
	}

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(job *bucketJob) {
			defer wg.Done()
			fillBucket(&job.result, job.pool)
		}(&jobs[i])
	}
	wg.Wait()

	sel.Buckets = make([]BucketResult, len(jobs))
	for i := range jobs {
		sel.Buckets[i] = jobs[i].result
	}
	return sel, warnings
}

// fillBucket admits entities greedily by descending rating until the next
// admission would exceed the budget, then closes. No partial admissions and
// no backfilling with cheaper lower-rated entities: risk priority wins over
// maximal utilization.
func fillBucket(result *BucketResult, pool []*plan.Entity) {
	if result.Budget <= 0 || result.UnitCost <= 0 || len(pool) == 0 {
		return
	}

	sorted := make([]*plan.Entity, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating == sorted[j].Rating {
			return sorted[i].Code < sorted[j].Code
		}
		return sorted[i].Rating > sorted[j].Rating
	})

	var running float64
	for _, e := range sorted {
		if running+result.UnitCost > result.Budget {
			break
		}
		e.Selected = true
		e.MandaysCost = result.UnitCost
		running += result.UnitCost
		result.SelectedCount++
	}
	result.MandaysUsed = running
}
