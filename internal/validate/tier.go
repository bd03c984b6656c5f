package validate

import (
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// TierFor routes a record by its final validation state. The result is a
// pure function of (confidence, flag severities) and is never reassigned
// downstream:
//
//	manual       any critical flag, or confidence below the manual threshold
//	auto_accept  confidence at/above the auto threshold, no critical, no error
//	review       everything else
func (e *Engine) TierFor(confidence float64, flags []model.Flag) model.Tier {
	var hasCritical, hasError bool
	for _, f := range flags {
		switch f.Severity {
		case model.SeverityCritical:
			hasCritical = true
		case model.SeverityError:
			hasError = true
		}
	}

	if hasCritical || confidence < e.policy.ManualThreshold {
		return model.TierManual
	}
	if confidence >= e.policy.AutoThreshold && !hasError {
		return model.TierAutoAccept
	}
	return model.TierReview
}
