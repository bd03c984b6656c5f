package model

// MonthlyTotal is the rollup of accepted spend for one property/period.
// Manual-tier records are excluded from the total and listed separately.
type MonthlyTotal struct {
	PropertyID    string   `json:"property_id"`
	Period        string   `json:"period"`
	Total         float64  `json:"total"`
	RecordCount   int      `json:"record_count"`
	PendingManual []string `json:"pending_manual,omitempty"` // source IDs awaiting resolution
}

// ReconciliationStatus is the outcome of comparing two independently-derived
// totals for the same property/period.
type ReconciliationStatus string

const (
	Reconciled  ReconciliationStatus = "reconciled"
	Discrepancy ReconciliationStatus = "discrepancy"
)

// Reconciliation carries both totals and their difference. A discrepancy is
// surfaced with both values, never resolved by picking one.
type Reconciliation struct {
	PropertyID  string               `json:"property_id"`
	Period      string               `json:"period"`
	Computed    float64              `json:"computed"`
	Reported    float64              `json:"reported"`
	AbsDiff     float64              `json:"abs_diff"`
	PctDiff     float64              `json:"pct_diff"`
	Status      ReconciliationStatus `json:"status"`
	ReportedSrc string               `json:"reported_src,omitempty"` // where the independent total came from
}

// PortfolioSummary averages per-door metrics across properties with complete
// data and counts the rest. Excluded properties are reported, never hidden.
type PortfolioSummary struct {
	AvgCPD          Metric                `json:"avg_cpd"`
	AvgYPD          Metric                `json:"avg_ypd"`
	TierCounts      map[BenchmarkTier]int `json:"tier_counts"`
	PropertiesTotal int                   `json:"properties_total"`
	ExcludedMissing int                   `json:"excluded_missing"`
}
