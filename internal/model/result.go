package model

// Severity ranks a validation flag.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Tier is the escalation bucket a record routes to after validation.
type Tier string

const (
	TierAutoAccept Tier = "auto_accept"
	TierReview     Tier = "review"
	TierManual     Tier = "manual"
)

// Flag is one validation finding. Flags are attached to results, never thrown.
type Flag struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationResult holds the validation outcome for one record. Tier is a
// deterministic function of Confidence and flag severities and is never
// reassigned downstream.
type ValidationResult struct {
	SourceID   string  `json:"source_id"`
	Confidence float64 `json:"confidence"` // 0.0-1.0
	Flags      []Flag  `json:"flags,omitempty"`
	Tier       Tier    `json:"tier"`
}

// HasSeverity reports whether any flag carries the given severity.
func (v *ValidationResult) HasSeverity(s Severity) bool {
	for _, f := range v.Flags {
		if f.Severity == s {
			return true
		}
	}
	return false
}
