package model

// Unknown is the sentinel for a string field the normalizer could not
// determine. It is never substituted with a default business value.
const Unknown = "unknown"

// LineCategory classifies an invoice line item.
type LineCategory string

const (
	CategoryBase          LineCategory = "base"
	CategoryExtraPickup   LineCategory = "extra_pickup"
	CategoryContamination LineCategory = "contamination"
	CategoryOverage       LineCategory = "overage"
	CategoryFuelSurcharge LineCategory = "fuel_surcharge"
	CategoryFranchiseFee  LineCategory = "franchise_fee"
	CategoryAdmin         LineCategory = "admin"
	CategoryEnvironmental LineCategory = "environmental_charge"
	CategoryTax           LineCategory = "tax"
	CategoryOther         LineCategory = "other"
)

// LineItem is a single charge on an invoice. Quantity, UnitRate, and
// ExtendedAmount are nil when the source did not report them; a reported
// zero is distinct from absent.
type LineItem struct {
	Description    string       `json:"description"`
	Category       LineCategory `json:"category"`
	Quantity       *float64     `json:"quantity,omitempty"`
	UnitRate       *float64     `json:"unit_rate,omitempty"`
	ExtendedAmount *float64     `json:"extended_amount,omitempty"`
}

// InvoiceRecord is the canonical form of one hauler invoice. It is created
// once by the normalizer and never mutated afterwards; validation and
// calculation results are separate objects keyed by SourceID so the original
// record survives as an audit trail.
type InvoiceRecord struct {
	SourceID      string     `json:"source_id"`
	PropertyID    string     `json:"property_id"`
	Vendor        string     `json:"vendor"`
	AccountNumber string     `json:"account_number"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"`    // YYYY-MM-DD, or Unknown
	BillingPeriod string     `json:"billing_period"`  // YYYY-MM, or Unknown
	AmountDue     *float64   `json:"amount_due"`      // nil when the source did not report it
	MonthlyTons   *float64   `json:"monthly_tons,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

// LineItemTotal sums the extended amounts of all line items. The second
// return is the number of items that carried an extended amount.
func (r *InvoiceRecord) LineItemTotal() (float64, int) {
	var total float64
	var n int
	for _, li := range r.LineItems {
		if li.ExtendedAmount != nil {
			total += *li.ExtendedAmount
			n++
		}
	}
	return total, n
}
