package validate

import (
	"fmt"
	"math"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// OutlierItem pairs a validation result with the record's cost per door for
// the sibling outlier pass.
type OutlierItem struct {
	Result *model.ValidationResult
	CPD    model.Metric
}

// FlagOutliers runs the cross-record outlier check for one property's
// history. It requires the property's full record set, so it runs after the
// per-record phase barrier. Records whose cost per door deviates from the
// property mean by more than the configured z-score are warning-flagged as
// statistical outliers, not rejected; confidence and tier are recomputed for
// flagged records.
func (e *Engine) FlagOutliers(items []OutlierItem) {
	var cpds []float64
	for _, it := range items {
		if it.CPD.Available {
			cpds = append(cpds, it.CPD.Value)
		}
	}
	if len(cpds) < e.policy.MinOutlierPeers {
		return
	}

	mean, stddev := meanStddev(cpds)
	if stddev == 0 {
		return
	}

	for _, it := range items {
		if !it.CPD.Available {
			continue
		}
		z := math.Abs(it.CPD.Value-mean) / stddev
		if z <= e.policy.OutlierZScore {
			continue
		}
		res := it.Result
		res.Flags = append(res.Flags, model.Flag{
			Field:    "cost_per_door",
			Severity: model.SeverityWarning,
			Message: fmt.Sprintf("cost per door %.2f is a statistical outlier (%.1f std devs from property mean %.2f)",
				it.CPD.Value, z, mean),
		})
		res.Confidence = clamp(res.Confidence - e.policy.OutlierDeduction)
		res.Tier = e.TierFor(res.Confidence, res.Flags)
	}
}

func meanStddev(values []float64) (mean, stddev float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
