package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/config"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

func testBands() config.BenchmarkConfig {
	return config.BenchmarkConfig{ExcellentMax: 2.0, TargetMax: 2.5}
}

func f(v float64) *float64 { return &v }

func TestMonthlyYards_VolumeScheduled(t *testing.T) {
	c := New(testBands())

	// 10 yd x 2 containers x 6 pickups/week x 4.33 weeks = 519.6 yd/month
	yards, notes := c.MonthlyYards([]ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerFrontLoad,
			ContainerSize:  10,
			ContainerCount: 2,
			PickupsPerWeek: 6,
		},
	}})
	require.True(t, yards.Available)
	assert.InDelta(t, 519.6, yards.Value, 0.01)
	assert.Empty(t, notes)
}

func TestMetrics_VolumeScheduledScenario(t *testing.T) {
	c := New(testBands())
	prop := &model.Property{PropertyID: "pine-ridge", UnitCount: 312}

	m := c.Metrics(prop, "src-1", "2025-01", f(4308.72), []ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerFrontLoad,
			ContainerSize:  10,
			ContainerCount: 2,
			PickupsPerWeek: 6,
		},
	}})

	require.True(t, m.YPD.Available)
	assert.InDelta(t, 1.67, Round2(m.YPD.Value), 0.001)
	assert.Equal(t, model.BenchmarkExcellent, m.BenchmarkTier)

	require.True(t, m.CPD.Available)
	assert.InDelta(t, 13.81, Round2(m.CPD.Value), 0.001)
}

func TestMonthlyYards_WeightBased(t *testing.T) {
	c := New(testBands())

	// 8.6 tons x 2000 lb / 138 lb/yd3 = 124.64 yd/month
	yards, _ := c.MonthlyYards([]ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType: model.ContainerCompactor,
			ContainerSize: 30,
		},
		MonthlyTons: f(8.6),
	}})
	require.True(t, yards.Available)
	assert.InDelta(t, 124.64, yards.Value, 0.01)
}

func TestMetrics_CompactorScenario(t *testing.T) {
	c := New(testBands())
	prop := &model.Property{PropertyID: "oak-hollow", UnitCount: 308}

	m := c.Metrics(prop, "src-2", "2025-01", f(5100.00), []ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType: model.ContainerCompactor,
			ContainerSize: 30,
		},
		MonthlyTons: f(8.6),
	}})

	require.True(t, m.YPD.Available)
	assert.InDelta(t, 0.40, Round2(m.YPD.Value), 0.001)
	assert.Equal(t, model.BenchmarkExcellent, m.BenchmarkTier)
}

func TestMonthlyYards_OnCall(t *testing.T) {
	c := New(testBands())

	// 30 yd box, 6 pulls over 3 months = 2 avg pulls x 30 yd = 60 yd/month
	yards, _ := c.MonthlyYards([]ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType: model.ContainerRollOff,
			ContainerSize: 30,
			OnCall:        true,
		},
		ObservedPickups: 6,
		MonthsObserved:  3,
	}})
	require.True(t, yards.Available)
	assert.InDelta(t, 60.0, yards.Value, 0.001)
}

func TestServiceYards_VolumePrecedenceOverWeight(t *testing.T) {
	c := New(testBands())

	// Scheduled volume config and invoice tonnage both present: the volume
	// branch wins and the conflict is noted.
	yards, notes := c.MonthlyYards([]ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerCompactor,
			ContainerSize:  30,
			ContainerCount: 1,
			PickupsPerWeek: 1,
		},
		MonthlyTons: f(8.6),
	}})
	require.True(t, yards.Available)
	assert.InDelta(t, 30*1*1*WeeksPerMonth, yards.Value, 0.001)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "volume branch takes precedence")
}

func TestMonthlyYards_MultiServiceSum(t *testing.T) {
	c := New(testBands())

	yards, _ := c.MonthlyYards([]ServiceMonth{
		{Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerFrontLoad,
			ContainerSize:  8,
			ContainerCount: 3,
			PickupsPerWeek: 2,
		}},
		{Config: model.ServiceConfiguration{
			ContainerType: model.ContainerCompactor,
			ContainerSize: 30,
		},
			MonthlyTons: f(4.0)},
	})
	require.True(t, yards.Available)

	// Services sum before the per-door division, never average.
	want := 8*3*2*WeeksPerMonth + 4.0*PoundsPerTon/LooseMSWDensity
	assert.InDelta(t, want, yards.Value, 0.01)
}

func TestMonthlyYards_NoEvidenceUnavailable(t *testing.T) {
	c := New(testBands())

	yards, notes := c.MonthlyYards([]ServiceMonth{{
		Config: model.ServiceConfiguration{ContainerType: model.ContainerCompactor, ContainerSize: 30},
	}})
	assert.False(t, yards.Available)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "no usable evidence")
}

func TestMonthlyYards_OneBadServicePoisonsTotal(t *testing.T) {
	c := New(testBands())

	yards, _ := c.MonthlyYards([]ServiceMonth{
		{Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerFrontLoad,
			ContainerSize:  8,
			ContainerCount: 2,
			PickupsPerWeek: 2,
		}},
		{Config: model.ServiceConfiguration{ContainerType: model.ContainerCompactor, ContainerSize: 30}},
	})
	assert.False(t, yards.Available)
}

func TestCostPerDoor(t *testing.T) {
	c := New(testBands())

	cpd := c.CostPerDoor(f(4308.72), 312)
	require.True(t, cpd.Available)
	assert.InDelta(t, 13.81, Round2(cpd.Value), 0.001)

	assert.False(t, c.CostPerDoor(nil, 312).Available)
	assert.False(t, c.CostPerDoor(f(100), 0).Available)
}

func TestMetrics_MissingUnitCount(t *testing.T) {
	c := New(testBands())
	prop := &model.Property{PropertyID: "elm-court", UnitCount: 0}

	m := c.Metrics(prop, "src-3", "2025-02", f(1000), []ServiceMonth{{
		Config: model.ServiceConfiguration{
			ContainerType:  model.ContainerFrontLoad,
			ContainerSize:  8,
			ContainerCount: 1,
			PickupsPerWeek: 1,
		},
	}})

	assert.True(t, m.MonthlyYards.Available)
	assert.False(t, m.YPD.Available)
	assert.False(t, m.CPD.Available)
	assert.Equal(t, model.BenchmarkUnavailable, m.BenchmarkTier)
}

func TestClassify(t *testing.T) {
	c := New(testBands())

	tests := []struct {
		name string
		ypd  model.Metric
		want model.BenchmarkTier
	}{
		{"unavailable", model.UnavailableMetric(), model.BenchmarkUnavailable},
		{"excellent at boundary", model.AvailableMetric(2.0), model.BenchmarkExcellent},
		{"within target", model.AvailableMetric(2.3), model.BenchmarkWithinTarget},
		{"within target at boundary", model.AvailableMetric(2.5), model.BenchmarkWithinTarget},
		{"above target", model.AvailableMetric(2.51), model.BenchmarkAboveTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ypd))
		})
	}
}
