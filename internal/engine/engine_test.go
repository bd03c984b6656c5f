package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/aggregate"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/portfolio"
)

func testConfig() *config.Config {
	return &config.Config{
		Policy: config.ValidationPolicy{
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
		},
		Benchmark: config.BenchmarkConfig{ExcellentMax: 2.0, TargetMax: 2.5},
		Engine:    config.EngineConfig{MaxConcurrentRecords: 4, ReconcileToleranceUSD: 1.00},
	}
}

func testLookup(t *testing.T) *portfolio.Lookup {
	t.Helper()
	l, err := portfolio.NewLookup([]model.Property{
		{
			PropertyID: "pine-ridge",
			Name:       "Pine Ridge",
			UnitCount:  312,
			Services: []model.ServiceConfiguration{{
				ContainerType:  model.ContainerFrontLoad,
				ContainerSize:  10,
				ContainerCount: 2,
				PickupsPerWeek: 6,
			}},
		},
		{
			PropertyID: "oak-hollow",
			Name:       "Oak Hollow",
			UnitCount:  308,
			Services: []model.ServiceConfiguration{{
				ContainerType: model.ContainerCompactor,
				ContainerSize: 30,
			}},
		},
	})
	require.NoError(t, err)
	return l
}

func TestNew_RequiresPortfolio(t *testing.T) {
	_, err := New(testConfig(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio configuration is required")
}

func TestProcess_Batch(t *testing.T) {
	eng, err := New(testConfig(), nil, testLookup(t))
	require.NoError(t, err)

	payloads := []RawPayload{
		{
			SourceID:   "pine-ridge_01-2025.json",
			PropertyID: "pine-ridge",
			Data: []byte(`{
				"vendor": "Greenway Waste",
				"invoice_date": "2025-01-15",
				"amount_due": 4308.72
			}`),
		},
		{
			SourceID:   "oak-hollow_01-2025.json",
			PropertyID: "oak-hollow",
			Payload: map[string]any{
				"vendor":       "Greenway Waste",
				"invoice_date": "2025-01-20",
				"amount_due":   5100.00,
				"monthly_tons": 8.6,
			},
		},
		{
			// No amount, date, or property mapping: skipped, not fatal.
			SourceID: "garbage.json",
			Data:     []byte(`{"notes": "unreadable scan"}`),
		},
	}

	result, err := eng.Process(context.Background(), payloads, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "garbage.json", result.Skipped[0].SourceID)

	assert.Len(t, result.Buckets[model.TierAutoAccept], 2)
	assert.Empty(t, result.Buckets[model.TierManual])

	// Results keep payload order regardless of goroutine scheduling.
	assert.Equal(t, "pine-ridge_01-2025.json", result.Records[0].Record.SourceID)
	assert.Equal(t, "oak-hollow_01-2025.json", result.Records[1].Record.SourceID)

	// Pine Ridge: 10 x 2 x 6 x 4.33 / 312 = 1.67 ypd.
	pine := result.Records[0].Metrics
	require.True(t, pine.YPD.Available)
	assert.InDelta(t, 1.67, pine.YPD.Value, 0.01)
	assert.Equal(t, model.BenchmarkExcellent, pine.BenchmarkTier)

	// Oak Hollow: 8.6 t x 2000 / 138 / 308 = 0.40 ypd via the weight branch.
	oak := result.Records[1].Metrics
	require.True(t, oak.YPD.Available)
	assert.InDelta(t, 0.40, oak.YPD.Value, 0.01)

	require.Len(t, result.Monthly, 2)
	require.NotNil(t, result.Portfolio)
	assert.Equal(t, 2, result.Portfolio.PropertiesTotal)
}

func TestProcess_UnmappedPropertyGoesManual(t *testing.T) {
	eng, err := New(testConfig(), nil, testLookup(t))
	require.NoError(t, err)

	result, err := eng.Process(context.Background(), []RawPayload{{
		SourceID:   "elm-court_01-2025.json",
		PropertyID: "elm-court",
		Payload: map[string]any{
			"vendor":       "WM",
			"invoice_date": "2025-01-10",
			"amount_due":   900.0,
		},
	}}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, result.RecordCount)
	assert.Equal(t, model.TierManual, result.Records[0].Validation.Tier)
	assert.False(t, result.Records[0].Metrics.CPD.Available)
}

func TestProcess_Reconciliation(t *testing.T) {
	eng, err := New(testConfig(), nil, testLookup(t))
	require.NoError(t, err)

	payloads := []RawPayload{{
		SourceID:   "pine-ridge_01-2025.json",
		PropertyID: "pine-ridge",
		Payload: map[string]any{
			"vendor":       "Greenway Waste",
			"invoice_date": "2025-01-15",
			"amount_due":   4031.72,
		},
	}}
	reported := []aggregate.ReportedTotal{{
		PropertyID: "pine-ridge",
		Period:     "2025-01",
		Total:      4033.10,
		Source:     "ledger",
	}}

	result, err := eng.Process(context.Background(), payloads, reported)
	require.NoError(t, err)

	require.Len(t, result.Discrepant, 1)
	assert.InDelta(t, 1.38, result.Discrepant[0].AbsDiff, 0.001)
	assert.Equal(t, model.Discrepancy, result.Discrepant[0].Status)
}

func TestProcess_OutlierReTiered(t *testing.T) {
	eng, err := New(testConfig(), nil, testLookup(t))
	require.NoError(t, err)

	mk := func(src string, amount float64) RawPayload {
		return RawPayload{
			SourceID:   src,
			PropertyID: "pine-ridge",
			Payload: map[string]any{
				"vendor":         "Greenway Waste",
				"invoice_date":   "2025-01-15",
				"billing_period": "2025-01",
				"amount_due":     amount,
			},
		}
	}

	payloads := []RawPayload{
		mk("a.json", 4300),
		mk("b.json", 4300),
		mk("c.json", 4300),
		mk("d.json", 4300),
		mk("e.json", 4300),
		mk("f.json", 15000), // 48/door against a 13.78 peer mean
	}

	result, err := eng.Process(context.Background(), payloads, nil)
	require.NoError(t, err)
	require.Equal(t, 6, result.RecordCount)

	last := result.Records[5].Validation
	require.NotEmpty(t, last.Flags)
	found := false
	for _, fl := range last.Flags {
		if fl.Field == "cost_per_door" && fl.Severity == model.SeverityWarning {
			found = true
		}
	}
	assert.True(t, found, "expected a cost_per_door outlier warning")
	assert.Less(t, last.Confidence, 1.0)
}

func TestCountPickups(t *testing.T) {
	q := 3.0
	items := []model.LineItem{
		{Description: "Extra Pickup", Category: model.CategoryExtraPickup, Quantity: &q},
		{Description: "Extra Pickup", Category: model.CategoryExtraPickup},
		{Description: "Fuel Surcharge", Category: model.CategoryFuelSurcharge},
	}
	assert.Equal(t, 4.0, countPickups(items))
}
