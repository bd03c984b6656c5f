// Package calc computes the yards-per-door and cost-per-door efficiency
// metrics. The YPD/CPD formulas live here and only here; every caller goes
// through the Calculator so the constants cannot drift between call sites.
package calc

import (
	"fmt"
	"math"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

const (
	// WeeksPerMonth converts a weekly pickup frequency to monthly volume.
	// 52/12; never round to 4.0.
	WeeksPerMonth = 4.33

	// LooseMSWDensity is the loose municipal-solid-waste density in lb/yd3
	// used to convert compactor tonnage to volume. Only an independently
	// sourced per-invoice density may override it.
	LooseMSWDensity = 138.0

	// PoundsPerTon converts reported tons to pounds.
	PoundsPerTon = 2000.0
)

// ServiceMonth pairs a service configuration with the observed evidence for
// one billing period. Tons comes from the invoice for weight-based
// compactors; observed pickups feed the on-call average.
type ServiceMonth struct {
	Config          model.ServiceConfiguration
	MonthlyTons     *float64
	ObservedPickups float64
	MonthsObserved  float64
}

// Calculator computes efficiency metrics and classifies them against the
// benchmark bands.
type Calculator struct {
	bands config.BenchmarkConfig
}

// New creates a Calculator with the given benchmark bands.
func New(bands config.BenchmarkConfig) *Calculator {
	return &Calculator{bands: bands}
}

// Metrics computes the full EfficiencyMetrics for one record. Any missing
// required input yields the explicit unavailable state, never a guessed
// value.
func (c *Calculator) Metrics(prop *model.Property, sourceID, period string, amountDue *float64, services []ServiceMonth) model.EfficiencyMetrics {
	m := model.EfficiencyMetrics{
		SourceID: sourceID,
		Period:   period,
	}
	if prop != nil {
		m.PropertyID = prop.PropertyID
	}

	unitCount := 0
	if prop != nil {
		unitCount = prop.UnitCount
	}

	m.CPD = c.CostPerDoor(amountDue, unitCount)

	yards, notes := c.MonthlyYards(services)
	m.MonthlyYards = yards
	m.Notes = notes

	if yards.Available && unitCount > 0 {
		m.YPD = model.AvailableMetric(yards.Value / float64(unitCount))
	} else {
		m.YPD = model.UnavailableMetric()
		if unitCount <= 0 {
			m.Notes = append(m.Notes, "unit count missing: per-door metrics unavailable")
		}
	}

	m.BenchmarkTier = c.Classify(m.YPD)
	return m
}

// CostPerDoor computes monthly amount / unit count. Unavailable when the
// amount is absent or the unit count is missing or zero.
func (c *Calculator) CostPerDoor(amount *float64, unitCount int) model.Metric {
	if amount == nil || unitCount <= 0 {
		return model.UnavailableMetric()
	}
	return model.AvailableMetric(*amount / float64(unitCount))
}

// MonthlyYards sums monthly waste volume across all of a property's
// concurrent services; the sum is taken before any per-door division, never
// averaged per service. If any service has no usable formula branch the
// total is unavailable and the failure is reported in the notes; the
// calculator never silently falls back to a different branch.
func (c *Calculator) MonthlyYards(services []ServiceMonth) (model.Metric, []string) {
	if len(services) == 0 {
		return model.UnavailableMetric(), nil
	}

	var total float64
	var notes []string
	for i, svc := range services {
		yards, note, ok := serviceYards(svc)
		if note != "" {
			notes = append(notes, fmt.Sprintf("service %d (%s): %s", i+1, svc.Config.ContainerType, note))
		}
		if !ok {
			return model.UnavailableMetric(), notes
		}
		total += yards
	}
	return model.AvailableMetric(total), notes
}

// serviceYards selects exactly one formula branch for a service by its
// evidence type. Precedence when evidence for more than one branch is
// present: volume over weight, recorded in the note.
func serviceYards(svc ServiceMonth) (yards float64, note string, ok bool) {
	cfg := svc.Config

	hasWeight := svc.MonthlyTons != nil && *svc.MonthlyTons > 0
	hasOnCall := cfg.OnCall && cfg.ContainerSize > 0 && svc.ObservedPickups > 0 && svc.MonthsObserved > 0

	switch {
	case cfg.VolumeScheduled():
		yards = cfg.ContainerSize * float64(cfg.ContainerCount) * cfg.PickupsPerWeek * WeeksPerMonth
		if hasWeight {
			note = "both volume and weight evidence present; volume branch takes precedence"
		}
		return yards, note, true

	case hasOnCall:
		avgPickups := svc.ObservedPickups / svc.MonthsObserved
		yards = cfg.ContainerSize * avgPickups
		if hasWeight {
			note = "both volume and weight evidence present; volume branch takes precedence"
		}
		return yards, note, true

	case hasWeight:
		yards = (*svc.MonthlyTons * PoundsPerTon) / LooseMSWDensity
		return yards, "", true

	default:
		return 0, "no usable evidence for any formula branch", false
	}
}

// Classify maps a yards-per-door metric onto the benchmark bands for
// garden-style multifamily. Missing inputs classify as unavailable, never
// defaulted to a tier.
func (c *Calculator) Classify(ypd model.Metric) model.BenchmarkTier {
	if !ypd.Available {
		return model.BenchmarkUnavailable
	}
	switch {
	case ypd.Value <= c.bands.ExcellentMax:
		return model.BenchmarkExcellent
	case ypd.Value <= c.bands.TargetMax:
		return model.BenchmarkWithinTarget
	default:
		return model.BenchmarkAboveTarget
	}
}

// Round2 rounds to two decimal places for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
