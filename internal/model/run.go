package model

import "time"

// RunStatus tracks a batch run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusProcessing  RunStatus = "processing"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run is one batch analysis run.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordResult is the (record, validation, metrics) triple produced for one
// source payload that survived normalization.
type RecordResult struct {
	Record     InvoiceRecord     `json:"record"`
	Validation ValidationResult  `json:"validation"`
	Metrics    EfficiencyMetrics `json:"metrics"`
}

// SkippedPayload reports a payload that could not produce even a minimal
// record. Skipped payloads are reported, never silently dropped.
type SkippedPayload struct {
	SourceID string `json:"source_id"`
	Reason   string `json:"reason"`
}

// RunResult is the full output of a batch run.
type RunResult struct {
	Records     []RecordResult    `json:"records"`
	Skipped     []SkippedPayload  `json:"skipped,omitempty"`
	Buckets     map[Tier][]string `json:"buckets"` // tier -> source IDs
	Monthly     []MonthlyTotal    `json:"monthly,omitempty"`
	Discrepant  []Reconciliation  `json:"discrepant,omitempty"`
	Portfolio   *PortfolioSummary `json:"portfolio,omitempty"`
	DurationMS  int64             `json:"duration_ms"`
	RecordCount int               `json:"record_count"`
}
