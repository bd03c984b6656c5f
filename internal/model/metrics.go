package model

// BenchmarkTier classifies a yards-per-door value against the garden-style
// multifamily benchmark bands.
type BenchmarkTier string

const (
	BenchmarkExcellent    BenchmarkTier = "excellent"
	BenchmarkWithinTarget BenchmarkTier = "within_target"
	BenchmarkAboveTarget  BenchmarkTier = "above_target"
	BenchmarkUnavailable  BenchmarkTier = "unavailable"
)

// Metric is a computed value that is either present or explicitly
// unavailable. An unavailable metric is never treated as zero downstream.
type Metric struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// AvailableMetric wraps a computed value.
func AvailableMetric(v float64) Metric { return Metric{Value: v, Available: true} }

// UnavailableMetric is the explicit missing-inputs state.
func UnavailableMetric() Metric { return Metric{} }

// EfficiencyMetrics holds the per-door efficiency numbers for one record or
// one property/period rollup.
type EfficiencyMetrics struct {
	SourceID      string        `json:"source_id,omitempty"`
	PropertyID    string        `json:"property_id"`
	Period        string        `json:"period"` // YYYY-MM
	YPD           Metric        `json:"ypd"`
	CPD           Metric        `json:"cpd"`
	MonthlyYards  Metric        `json:"monthly_yards"`
	BenchmarkTier BenchmarkTier `json:"benchmark_tier"`

	// Notes records non-fatal calculation observations, e.g. a service that
	// carried evidence for more than one formula branch.
	Notes []string `json:"notes,omitempty"`
}
