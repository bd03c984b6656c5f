package normalize

import (
	"strings"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// categoryRule binds a line category to the keywords that identify it.
type categoryRule struct {
	category model.LineCategory
	keywords []string
}

// categoryRules are evaluated in priority order; the first rule with a
// matching keyword wins. Specific charge types sort before the generic base
// keywords so "extra pickup - trash service" classifies as extra_pickup.
var categoryRules = []categoryRule{
	{model.CategoryExtraPickup, []string{"extra pickup", "extra p/u", "additional pickup", "extra service", "on-call pickup", "special pickup"}},
	{model.CategoryContamination, []string{"contamination", "contaminated", "recycle contamination"}},
	{model.CategoryOverage, []string{"overage", "overfill", "overflow", "overloaded", "excess yardage"}},
	{model.CategoryFuelSurcharge, []string{"fuel surcharge", "fuel", "fsc", "energy surcharge"}},
	{model.CategoryEnvironmental, []string{"environmental", "env fee", "recovery fee", "regulatory cost"}},
	{model.CategoryFranchiseFee, []string{"franchise"}},
	{model.CategoryAdmin, []string{"admin", "administrative", "billing fee", "late fee", "statement fee", "paper invoice"}},
	{model.CategoryTax, []string{"tax", "taxes"}},
	{model.CategoryBase, []string{"base", "service charge", "monthly service", "regular service", "trash service", "recycling service", "waste removal", "compactor service", "disposal service"}},
}

// InferCategory matches a line item's free-text description against the
// category keyword sets. No match defaults to other; a line is never
// silently dropped.
func InferCategory(description string) model.LineCategory {
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
