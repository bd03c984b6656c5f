// Package aggregate rolls validated, calculated records up to monthly and
// portfolio summaries and reconciles independently-sourced totals.
package aggregate

import (
	"math"
	"sort"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// ReportedTotal is an independently-derived total for a property/period,
// e.g. from a pre-existing ledger spreadsheet, used for reconciliation
// against the computed totals.
type ReportedTotal struct {
	PropertyID string  `json:"property_id" yaml:"property_id"`
	Period     string  `json:"period" yaml:"period"`
	Total      float64 `json:"total" yaml:"total"`
	Source     string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// Aggregator rolls up record results.
type Aggregator struct {
	toleranceUSD float64
}

// New creates an Aggregator with the given reconciliation tolerance in
// dollars.
func New(toleranceUSD float64) *Aggregator {
	return &Aggregator{toleranceUSD: toleranceUSD}
}

// MonthlyTotals sums amount due per property/period over auto_accept and
// review tier records. Manual-tier records are excluded from the total and
// listed as pending manual resolution instead.
func (a *Aggregator) MonthlyTotals(results []model.RecordResult) []model.MonthlyTotal {
	type key struct{ property, period string }
	totals := make(map[key]*model.MonthlyTotal)

	for _, rr := range results {
		k := key{rr.Record.PropertyID, rr.Record.BillingPeriod}
		mt, ok := totals[k]
		if !ok {
			mt = &model.MonthlyTotal{PropertyID: k.property, Period: k.period}
			totals[k] = mt
		}

		if rr.Validation.Tier == model.TierManual {
			mt.PendingManual = append(mt.PendingManual, rr.Record.SourceID)
			continue
		}
		if rr.Record.AmountDue != nil {
			mt.Total += *rr.Record.AmountDue
			mt.RecordCount++
		}
	}

	out := make([]model.MonthlyTotal, 0, len(totals))
	for _, mt := range totals {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Reconcile compares each computed monthly total against an independently
// reported total for the same property/period. Differences inside the
// tolerance reconcile; anything else is a discrepancy carrying both values
// and the absolute and percentage difference. The aggregator never picks a
// winner.
func (a *Aggregator) Reconcile(monthly []model.MonthlyTotal, reported []ReportedTotal) []model.Reconciliation {
	type key struct{ property, period string }
	computed := make(map[key]float64, len(monthly))
	for _, mt := range monthly {
		computed[key{mt.PropertyID, mt.Period}] = mt.Total
	}

	var out []model.Reconciliation
	for _, rt := range reported {
		total, ok := computed[key{rt.PropertyID, rt.Period}]
		if !ok {
			continue // no computed counterpart; nothing to compare
		}

		absDiff := math.Abs(total - rt.Total)
		var pctDiff float64
		if rt.Total != 0 {
			pctDiff = absDiff / math.Abs(rt.Total) * 100
		}

		rec := model.Reconciliation{
			PropertyID:  rt.PropertyID,
			Period:      rt.Period,
			Computed:    total,
			Reported:    rt.Total,
			AbsDiff:     absDiff,
			PctDiff:     pctDiff,
			Status:      model.Discrepancy,
			ReportedSrc: rt.Source,
		}
		if absDiff < a.toleranceUSD {
			rec.Status = model.Reconciled
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PropertyID != out[j].PropertyID {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Classifier maps a yards-per-door metric to a benchmark tier. Supplied by
// the calculator so the bands are defined in one place.
type Classifier func(model.Metric) model.BenchmarkTier

// Portfolio averages CPD and YPD across properties with complete metrics
// and counts properties by benchmark tier. Properties excluded for missing
// data are counted and reported alongside the averages, never hidden.
func (a *Aggregator) Portfolio(results []model.RecordResult, totalProperties int, classify Classifier) *model.PortfolioSummary {
	type acc struct {
		cpdSum, ypdSum float64
		cpdN, ypdN     int
	}
	perProperty := make(map[string]*acc)

	for _, rr := range results {
		p, ok := perProperty[rr.Metrics.PropertyID]
		if !ok {
			p = &acc{}
			perProperty[rr.Metrics.PropertyID] = p
		}
		if rr.Metrics.CPD.Available {
			p.cpdSum += rr.Metrics.CPD.Value
			p.cpdN++
		}
		if rr.Metrics.YPD.Available {
			p.ypdSum += rr.Metrics.YPD.Value
			p.ypdN++
		}
	}

	summary := &model.PortfolioSummary{
		TierCounts:      make(map[model.BenchmarkTier]int),
		PropertiesTotal: totalProperties,
	}

	var cpdTotal, ypdTotal float64
	var cpdProps, ypdProps int
	for _, p := range perProperty {
		ypd := model.UnavailableMetric()
		if p.ypdN > 0 {
			ypd = model.AvailableMetric(p.ypdSum / float64(p.ypdN))
			ypdTotal += ypd.Value
			ypdProps++
		}
		if p.cpdN > 0 {
			cpdTotal += p.cpdSum / float64(p.cpdN)
			cpdProps++
		}
		summary.TierCounts[classify(ypd)]++
	}

	if cpdProps > 0 {
		summary.AvgCPD = model.AvailableMetric(cpdTotal / float64(cpdProps))
	}
	if ypdProps > 0 {
		summary.AvgYPD = model.AvailableMetric(ypdTotal / float64(ypdProps))
	}
	summary.ExcludedMissing = totalProperties - ypdProps
	if summary.ExcludedMissing < 0 {
		summary.ExcludedMissing = 0
	}
	return summary
}
