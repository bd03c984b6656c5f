// Package normalize converts heterogeneous vendor payloads into canonical
// invoice records. It maps vendor-specific field names through an alias
// table, normalizes dates and billing periods, and infers line-item
// categories. Fields it cannot determine are set to an explicit unknown
// sentinel, never a default business value.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// MalformedSourceError reports a payload without enough structure to build
// even a minimal record. The caller logs and skips the payload; the
// normalizer never fabricates a record.
type MalformedSourceError struct {
	SourceID string
	Reason   string
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("normalize: malformed source %s: %s", e.SourceID, e.Reason)
}

// aliases maps each canonical field to the vendor spellings seen across the
// hauler invoice corpus. Lookup is case-insensitive with spaces collapsed to
// underscores. First present key wins.
var aliases = map[string][]string{
	"vendor":         {"vendor", "hauler", "company", "service_provider"},
	"account_number": {"account_number", "account_no", "account", "acct_no", "acct"},
	"invoice_number": {"invoice_number", "invoice_no", "invoice", "statement_number"},
	"invoice_date":   {"invoice_date", "date", "bill_date", "statement_date", "billing_date"},
	"billing_period": {"billing_period", "service_period", "period", "billing_month"},
	"amount_due":     {"amount_due", "total_due", "current_charges", "invoice_total", "balance_due", "amount", "total"},
	"monthly_tons":   {"monthly_tons", "tons", "tonnage", "total_tons", "net_tons"},
	"line_items":     {"line_items", "lines", "items", "charges"},
}

// Normalizer builds canonical invoice records from raw payloads. It is
// stateless; the same payload always yields an identical record.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize converts one raw payload into an InvoiceRecord. propertyID is
// resolved by the caller; which property a file belongs to is external
// configuration, not a normalizer decision. sourceID identifies the
// originating file and may carry a _MM-YYYY billing period token.
func (n *Normalizer) Normalize(sourceID, propertyID string, payload map[string]any) (*model.InvoiceRecord, error) {
	fields := foldKeys(payload)

	rec := &model.InvoiceRecord{
		SourceID:      sourceID,
		PropertyID:    propertyID,
		Vendor:        stringField(fields, "vendor"),
		AccountNumber: stringField(fields, "account_number"),
		InvoiceNumber: stringField(fields, "invoice_number"),
		InvoiceDate:   model.Unknown,
		BillingPeriod: model.Unknown,
		AmountDue:     amountField(fields, "amount_due"),
		MonthlyTons:   amountField(fields, "monthly_tons"),
	}

	if raw, ok := lookup(fields, "invoice_date"); ok {
		if d, ok := ParseDate(asString(raw)); ok {
			rec.InvoiceDate = d
		}
	}

	rec.BillingPeriod = resolvePeriod(fields, rec.InvoiceDate, sourceID)

	if raw, ok := lookup(fields, "line_items"); ok {
		rec.LineItems = normalizeLineItems(raw)
	}

	if rec.AmountDue == nil && rec.InvoiceDate == model.Unknown &&
		rec.BillingPeriod == model.Unknown && rec.PropertyID == "" {
		return nil, &MalformedSourceError{
			SourceID: sourceID,
			Reason:   "no amount, no date, no property",
		}
	}

	return rec, nil
}

// resolvePeriod derives the YYYY-MM billing period: an explicit period field
// wins, then the invoice date, then a filename-embedded _MM-YYYY token.
func resolvePeriod(fields map[string]any, invoiceDate, sourceID string) string {
	if raw, ok := lookup(fields, "billing_period"); ok {
		if p, ok := ParsePeriod(asString(raw)); ok {
			return p
		}
	}
	if invoiceDate != model.Unknown && len(invoiceDate) >= 7 {
		return invoiceDate[:7]
	}
	if p, ok := PeriodFromFilename(sourceID); ok {
		return p
	}
	return model.Unknown
}

func normalizeLineItems(raw any) []model.LineItem {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	items := make([]model.LineItem, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		li := foldKeys(m)
		desc := asString(firstPresent(li, "description", "desc", "item"))
		items = append(items, model.LineItem{
			Description:    desc,
			Category:       InferCategory(desc),
			Quantity:       amountValue(firstPresent(li, "quantity", "qty")),
			UnitRate:       amountValue(firstPresent(li, "unit_rate", "rate", "unit_price")),
			ExtendedAmount: amountValue(firstPresent(li, "extended_amount", "extended", "amount", "total")),
		})
	}
	return items
}

// foldKeys lowercases keys and collapses spaces/dashes to underscores so
// vendor spellings like "Account No" and "account-no" compare equal. Raw keys
// are visited in sorted order, so when two spellings fold to the same key the
// winner is stable across calls rather than subject to map iteration order.
func foldKeys(payload map[string]any) map[string]any {
	raw := make([]string, 0, len(payload))
	for k := range payload {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	out := make(map[string]any, len(payload))
	for _, k := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		key = strings.NewReplacer(" ", "_", "-", "_", "#", "").Replace(key)
		if _, exists := out[key]; !exists {
			out[key] = payload[k]
		}
	}
	return out
}

// lookup resolves a canonical field through the alias table. Explicit JSON
// nulls count as absent.
func lookup(fields map[string]any, canonical string) (any, bool) {
	for _, alias := range aliases[canonical] {
		if v, ok := fields[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstPresent(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(fields map[string]any, canonical string) string {
	raw, ok := lookup(fields, canonical)
	if !ok {
		return model.Unknown
	}
	s := strings.TrimSpace(asString(raw))
	if s == "" {
		return model.Unknown
	}
	return s
}

func amountField(fields map[string]any, canonical string) *float64 {
	raw, ok := lookup(fields, canonical)
	if !ok {
		return nil
	}
	return amountValue(raw)
}

// amountValue coerces a numeric payload value. Strings may carry currency
// formatting ("$4,308.72"); anything unparsable is treated as absent rather
// than silently zeroed.
func amountValue(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return nil
		}
		neg := false
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			neg = true
			s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		if neg {
			f = -f
		}
		return &f
	}
	return nil
}

func asString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%v", raw)
}
