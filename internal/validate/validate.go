// Package validate runs completeness, type, range, cross-field, and outlier
// checks over normalized invoice records, producing a confidence score and
// flags per record. Flags are attached, never thrown; a record always ends
// in exactly one of the three tiers.
package validate

import (
	"fmt"
	"math"
	"regexp"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

var (
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// Engine applies the validation policy to records.
type Engine struct {
	policy config.ValidationPolicy
}

// New creates an Engine with the given policy.
func New(policy config.ValidationPolicy) *Engine {
	return &Engine{policy: policy}
}

// Validate runs the per-record checks in order: completeness, type/format,
// range, cross-field consistency. Confidence starts at 1.0 and takes a fixed
// deduction per failed check, clamped to [0, 1]. The sibling outlier check
// runs separately once all of a property's records are in (see FlagOutliers).
func (e *Engine) Validate(rec *model.InvoiceRecord, prop *model.Property) model.ValidationResult {
	res := model.ValidationResult{SourceID: rec.SourceID}
	confidence := 1.0

	confidence -= e.checkCompleteness(rec, prop, &res)
	confidence -= e.checkTypes(rec, &res)
	confidence -= e.checkRanges(rec, prop, &res)
	confidence -= e.checkCrossField(rec, &res)

	res.Confidence = clamp(confidence)
	res.Tier = e.TierFor(res.Confidence, res.Flags)
	return res
}

// checkCompleteness flags each missing required field as critical.
// invoice_date and billing_period satisfy the date requirement jointly.
func (e *Engine) checkCompleteness(rec *model.InvoiceRecord, prop *model.Property, res *model.ValidationResult) float64 {
	var deduction float64

	missing := func(field, msg string) {
		res.Flags = append(res.Flags, model.Flag{
			Field:    field,
			Severity: model.SeverityCritical,
			Message:  msg,
		})
		deduction += e.policy.CriticalDeduction
	}

	if rec.PropertyID == "" || rec.PropertyID == model.Unknown {
		missing("property_id", "record is not mapped to a property")
	} else if prop == nil {
		missing("property_id", fmt.Sprintf("property %s is not in the portfolio configuration", rec.PropertyID))
	}
	if rec.InvoiceDate == model.Unknown && rec.BillingPeriod == model.Unknown {
		missing("invoice_date", "neither invoice date nor billing period is present")
	}
	if rec.AmountDue == nil {
		missing("amount_due", "amount due is absent; record cannot progress past validation")
	}
	if rec.Vendor == "" || rec.Vendor == model.Unknown {
		missing("vendor", "vendor is absent")
	}

	return deduction
}

// checkTypes verifies field formats: dates must be YYYY-MM-DD, periods
// YYYY-MM, numeric fields finite, line descriptions non-empty.
func (e *Engine) checkTypes(rec *model.InvoiceRecord, res *model.ValidationResult) float64 {
	var deduction float64

	bad := func(field, msg string) {
		res.Flags = append(res.Flags, model.Flag{
			Field:    field,
			Severity: model.SeverityError,
			Message:  msg,
		})
		deduction += e.policy.TypeDeduction
	}

	if rec.InvoiceDate != model.Unknown && !datePattern.MatchString(rec.InvoiceDate) {
		bad("invoice_date", fmt.Sprintf("%q is not a YYYY-MM-DD date", rec.InvoiceDate))
	}
	if rec.BillingPeriod != model.Unknown && !periodPattern.MatchString(rec.BillingPeriod) {
		bad("billing_period", fmt.Sprintf("%q is not a YYYY-MM period", rec.BillingPeriod))
	}
	if rec.AmountDue != nil && !finite(*rec.AmountDue) {
		bad("amount_due", "amount due is not a finite number")
	}
	if rec.MonthlyTons != nil && !finite(*rec.MonthlyTons) {
		bad("monthly_tons", "monthly tons is not a finite number")
	}
	for i, li := range rec.LineItems {
		if li.Description == "" {
			bad(fmt.Sprintf("line_items[%d].description", i), "line item has no description")
		}
	}

	return deduction
}

// checkRanges verifies business ranges: amount due in [0, max], and when a
// cost per door is computable, CPD within the expected band. A negative
// amount is a hard violation (error); merely outside the business range is a
// warning.
func (e *Engine) checkRanges(rec *model.InvoiceRecord, prop *model.Property, res *model.ValidationResult) float64 {
	var deduction float64

	if rec.AmountDue != nil && finite(*rec.AmountDue) {
		amount := *rec.AmountDue
		switch {
		case amount < 0:
			res.Flags = append(res.Flags, model.Flag{
				Field:    "amount_due",
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("amount due %.2f is negative", amount),
			})
			deduction += e.policy.RangeDeduction
		case amount > e.policy.MaxAmountDue:
			res.Flags = append(res.Flags, model.Flag{
				Field:    "amount_due",
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("amount due %.2f exceeds expected maximum %.2f", amount, e.policy.MaxAmountDue),
			})
			deduction += e.policy.SoftRangeDeduction
		}

		if prop != nil && prop.HasUnitCount() && amount >= 0 {
			cpd := amount / float64(prop.UnitCount)
			if cpd < e.policy.MinCPD || cpd > e.policy.MaxCPD {
				res.Flags = append(res.Flags, model.Flag{
					Field:    "cost_per_door",
					Severity: model.SeverityWarning,
					Message: fmt.Sprintf("cost per door %.2f outside expected range [%.2f, %.2f]",
						cpd, e.policy.MinCPD, e.policy.MaxCPD),
				})
				deduction += e.policy.SoftRangeDeduction
			}
		}
	}

	return deduction
}

// checkCrossField compares the line item sum to the amount due, and each
// line's unit_rate x quantity to its extended amount. Within the warn
// tolerance passes; between warn and error tolerances warns; beyond errors.
// Mismatches are flagged, never auto-corrected.
func (e *Engine) checkCrossField(rec *model.InvoiceRecord, res *model.ValidationResult) float64 {
	var deduction float64

	if rec.AmountDue != nil && *rec.AmountDue > 0 {
		if sum, n := rec.LineItemTotal(); n > 0 {
			gap := pctGap(sum, *rec.AmountDue)
			deduction += e.flagGap(res, "line_items", gap,
				fmt.Sprintf("line items sum %.2f vs amount due %.2f (%.1f%% gap)", sum, *rec.AmountDue, gap))
		}
	}

	for i, li := range rec.LineItems {
		if li.Quantity == nil || li.UnitRate == nil || li.ExtendedAmount == nil {
			continue
		}
		product := *li.Quantity * *li.UnitRate
		if *li.ExtendedAmount == 0 && product == 0 {
			continue
		}
		base := math.Max(math.Abs(*li.ExtendedAmount), math.Abs(product))
		if base == 0 {
			continue
		}
		gap := math.Abs(product-*li.ExtendedAmount) / base * 100
		deduction += e.flagGap(res, fmt.Sprintf("line_items[%d].extended_amount", i), gap,
			fmt.Sprintf("rate x quantity %.2f vs extended amount %.2f (%.1f%% gap)", product, *li.ExtendedAmount, gap))
	}

	return deduction
}

// flagGap applies the tolerance bands to a percentage gap and returns the
// confidence deduction taken.
func (e *Engine) flagGap(res *model.ValidationResult, field string, gap float64, msg string) float64 {
	switch {
	case gap <= e.policy.WarnTolerancePct:
		return 0
	case gap <= e.policy.ErrorTolerancePct:
		res.Flags = append(res.Flags, model.Flag{Field: field, Severity: model.SeverityWarning, Message: msg})
		return e.policy.SoftCrossDeduction
	default:
		res.Flags = append(res.Flags, model.Flag{Field: field, Severity: model.SeverityError, Message: msg})
		return e.policy.CrossDeduction
	}
}

func pctGap(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Abs(a-b) / math.Abs(b) * 100
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
