package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

func testPolicy() config.ValidationPolicy {
	return config.ValidationPolicy{
		CriticalDeduction:  0.30,
		TypeDeduction:      0.15,
		RangeDeduction:     0.15,
		SoftRangeDeduction: 0.05,
		CrossDeduction:     0.15,
		SoftCrossDeduction: 0.05,
		OutlierDeduction:   0.05,
		ManualThreshold:    0.70,
		AutoThreshold:      0.85,
		WarnTolerancePct:   5,
		ErrorTolerancePct:  10,
		MaxAmountDue:       100_000,
		MinCPD:             1,
		MaxCPD:             100,
		OutlierZScore:      2.0,
		MinOutlierPeers:    3,
	}
}

func f(v float64) *float64 { return &v }

func cleanRecord() *model.InvoiceRecord {
	return &model.InvoiceRecord{
		SourceID:      "src-1",
		PropertyID:    "pine-ridge",
		Vendor:        "Greenway Waste",
		AccountNumber: "GW-4471",
		InvoiceNumber: "INV-42",
		InvoiceDate:   "2025-01-15",
		BillingPeriod: "2025-01",
		AmountDue:     f(4308.72),
	}
}

func testProperty() *model.Property {
	return &model.Property{PropertyID: "pine-ridge", Name: "Pine Ridge", UnitCount: 312}
}

func TestValidate_CleanRecord(t *testing.T) {
	e := New(testPolicy())

	res := e.Validate(cleanRecord(), testProperty())
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
	assert.Empty(t, res.Flags)
	assert.Equal(t, model.TierAutoAccept, res.Tier)
}

func TestValidate_MissingAmountIsCritical(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = nil

	res := e.Validate(rec, testProperty())
	assert.InDelta(t, 0.70, res.Confidence, 0.001)
	assert.True(t, res.HasSeverity(model.SeverityCritical))
	assert.Equal(t, model.TierManual, res.Tier)
}

func TestValidate_TwoCriticalsForceManual(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = nil
	rec.InvoiceDate = model.Unknown
	rec.BillingPeriod = model.Unknown

	res := e.Validate(rec, testProperty())
	assert.InDelta(t, 0.40, res.Confidence, 0.001)
	assert.Equal(t, model.TierManual, res.Tier)

	criticals := 0
	for _, fl := range res.Flags {
		if fl.Severity == model.SeverityCritical {
			criticals++
		}
	}
	assert.Equal(t, 2, criticals)
}

func TestValidate_UnmappedProperty(t *testing.T) {
	e := New(testPolicy())

	res := e.Validate(cleanRecord(), nil)
	assert.True(t, res.HasSeverity(model.SeverityCritical))
	assert.Equal(t, model.TierManual, res.Tier)
}

func TestValidate_NegativeAmount(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = f(-50)

	res := e.Validate(rec, testProperty())
	assert.True(t, res.HasSeverity(model.SeverityError))
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.Equal(t, model.TierReview, res.Tier)
}

func TestValidate_CPDOutOfRangeWarns(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = f(100) // 0.32/door against 312 units

	res := e.Validate(rec, testProperty())
	assert.InDelta(t, 0.95, res.Confidence, 0.001)
	assert.True(t, res.HasSeverity(model.SeverityWarning))
	assert.Equal(t, model.TierAutoAccept, res.Tier)
}

func TestValidate_LineSumGapWarningBand(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = f(10912)
	rec.LineItems = []model.LineItem{{
		Description:    "Monthly Service",
		Category:       model.CategoryBase,
		ExtendedAmount: f(10500), // 3.9% gap: inside the warning band? no, inside the pass band
	}}

	// 3.8% gap is inside the 5% pass band: no flag.
	res := e.Validate(rec, testProperty())
	assert.InDelta(t, 1.0, res.Confidence, 0.001)

	// Push the gap into the 5-10% warning band.
	rec.LineItems[0].ExtendedAmount = f(10100) // 7.4% gap
	res = e.Validate(rec, testProperty())
	assert.InDelta(t, 0.95, res.Confidence, 0.001)
	assert.True(t, res.HasSeverity(model.SeverityWarning))

	// Beyond 10% is an error.
	rec.LineItems[0].ExtendedAmount = f(9500) // 12.9% gap
	res = e.Validate(rec, testProperty())
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.True(t, res.HasSeverity(model.SeverityError))
}

func TestValidate_LineExtensionMismatch(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.AmountDue = f(624)
	rec.LineItems = []model.LineItem{{
		Description:    "Extra Pickup",
		Category:       model.CategoryExtraPickup,
		Quantity:       f(2),
		UnitRate:       f(75),
		ExtendedAmount: f(624), // rate x qty = 150, way off
	}}

	res := e.Validate(rec, testProperty())
	assert.True(t, res.HasSeverity(model.SeverityError))
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.Equal(t, model.TierReview, res.Tier)
}

func TestValidate_BadDateFormat(t *testing.T) {
	e := New(testPolicy())
	rec := cleanRecord()
	rec.InvoiceDate = "01/15/2025"

	res := e.Validate(rec, testProperty())
	assert.InDelta(t, 0.85, res.Confidence, 0.001)
	assert.True(t, res.HasSeverity(model.SeverityError))
	assert.Equal(t, model.TierReview, res.Tier)
}

func TestTierFor_Boundaries(t *testing.T) {
	e := New(testPolicy())

	critical := []model.Flag{{Field: "amount_due", Severity: model.SeverityCritical}}
	errFlag := []model.Flag{{Field: "invoice_date", Severity: model.SeverityError}}

	tests := []struct {
		name       string
		confidence float64
		flags      []model.Flag
		want       model.Tier
	}{
		{"below manual threshold", 0.69, nil, model.TierManual},
		{"at manual threshold", 0.70, nil, model.TierReview},
		{"just below auto", 0.84, nil, model.TierReview},
		{"at auto threshold", 0.85, nil, model.TierAutoAccept},
		{"perfect", 1.0, nil, model.TierAutoAccept},
		{"critical overrides high confidence", 0.95, critical, model.TierManual},
		{"error blocks auto accept", 0.90, errFlag, model.TierReview},
		{"error below manual threshold", 0.60, errFlag, model.TierManual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.TierFor(tt.confidence, tt.flags))
		})
	}
}

func TestFlagOutliers(t *testing.T) {
	e := New(testPolicy())

	results := make([]model.ValidationResult, 6)
	for i := range results {
		results[i] = model.ValidationResult{Confidence: 1.0, Tier: model.TierAutoAccept}
	}

	items := make([]OutlierItem, 6)
	for i := 0; i < 5; i++ {
		items[i] = OutlierItem{Result: &results[i], CPD: model.AvailableMetric(12.0)}
	}
	items[5] = OutlierItem{Result: &results[5], CPD: model.AvailableMetric(40.0)}
	e.FlagOutliers(items)

	for i := 0; i < 5; i++ {
		assert.Empty(t, results[i].Flags)
	}

	require.Len(t, results[5].Flags, 1)
	assert.Equal(t, model.SeverityWarning, results[5].Flags[0].Severity)
	assert.InDelta(t, 0.95, results[5].Confidence, 0.001)
}

func TestFlagOutliers_TooFewPeers(t *testing.T) {
	e := New(testPolicy())

	results := make([]model.ValidationResult, 2)
	items := []OutlierItem{
		{Result: &results[0], CPD: model.AvailableMetric(10.0)},
		{Result: &results[1], CPD: model.AvailableMetric(90.0)},
	}
	e.FlagOutliers(items)

	assert.Empty(t, results[0].Flags)
	assert.Empty(t, results[1].Flags)
}

func TestFlagOutliers_UnavailableCPDIgnored(t *testing.T) {
	e := New(testPolicy())

	results := make([]model.ValidationResult, 4)
	items := []OutlierItem{
		{Result: &results[0], CPD: model.AvailableMetric(10.0)},
		{Result: &results[1], CPD: model.AvailableMetric(10.5)},
		{Result: &results[2], CPD: model.UnavailableMetric()},
		{Result: &results[3], CPD: model.AvailableMetric(11.0)},
	}
	e.FlagOutliers(items)

	// Only 3 available peers; the unavailable record takes no flag.
	assert.Empty(t, results[2].Flags)
}
