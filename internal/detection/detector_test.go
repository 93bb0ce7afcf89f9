package detection

import (
	"math"
	"testing"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBaseline() models.FeatureBaseline {
	b := models.FeatureBaseline{Features: map[string]models.FeatureStats{}, SampleSize: 100}
	for _, f := range models.TrackedFeatures() {
		b.Features[f] = models.FeatureStats{Mean: 0, StdDev: 1}
	}
	return b
}

// recordWith returns a record with the first n tracked features at value and the rest at 0.
func recordWith(n int, value float64) models.FlowRecord {
	rec := models.FlowRecord{Features: map[string]float64{}, Label: "BENIGN"}
	for i, f := range models.TrackedFeatures() {
		if i < n {
			rec.Features[f] = value
		} else {
			rec.Features[f] = 0
		}
	}
	return rec
}

func TestScore_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		record     models.FlowRecord
		confidence float64
		label      string
	}{
		{"all zeros", recordWith(0, 0), 0, models.LabelBenign},
		{"three deviating", recordWith(3, 5), 0.375, models.LabelAttack},
		{"two deviating is boundary", recordWith(2, 5), 0.25, models.LabelBenign},
		{"all deviating", recordWith(8, 5), 1.0, models.LabelAttack},
		{"exactly at threshold is not anomalous", recordWith(8, 2), 0, models.LabelBenign},
		{"negative deviation counts", recordWith(4, -3), 0.5, models.LabelAttack},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := d.Score(tt.record, unitBaseline())

			require.NoError(t, err)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-12)
			assert.Equal(t, tt.label, v.Label)
			assert.Equal(t, models.NumFeatures, v.TrackedCount)
			assert.Len(t, v.Scores, models.NumFeatures)
		})
	}
}

func TestScore_MeanVectorIsBenign(t *testing.T) {
	baseline := models.FeatureBaseline{Features: map[string]models.FeatureStats{}}
	rec := models.FlowRecord{Features: map[string]float64{}}
	for i, f := range models.TrackedFeatures() {
		mean := float64(i*1000) + 0.5
		baseline.Features[f] = models.FeatureStats{Mean: mean, StdDev: float64(i + 1)}
		rec.Features[f] = mean
	}

	v, err := NewDetector().Score(rec, baseline)

	require.NoError(t, err)
	assert.Zero(t, v.Confidence)
	assert.Equal(t, models.LabelBenign, v.Label)
	for _, s := range v.Scores {
		assert.Zero(t, s.ZScore, s.Feature)
	}
}

func TestScore_ConfidenceIsMonotonic(t *testing.T) {
	d := NewDetector()
	prev := -1.0
	for n := 0; n <= models.NumFeatures; n++ {
		v, err := d.Score(recordWith(n, 10), unitBaseline())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Confidence, prev)
		assert.Equal(t, n, v.AnomalousCount)
		prev = v.Confidence
	}
}

func TestScore_ZeroVariance(t *testing.T) {
	d := NewDetector()
	baseline := unitBaseline()
	baseline.Features[models.FeatureFlowIATStd] = models.FeatureStats{Mean: 3, StdDev: 0}

	t.Run("value on mean scores zero", func(t *testing.T) {
		rec := recordWith(0, 0)
		rec.Features[models.FeatureFlowIATStd] = 3

		v, err := d.Score(rec, baseline)

		require.NoError(t, err)
		assert.Zero(t, v.Confidence)
		for _, s := range v.Scores {
			assert.False(t, math.IsNaN(s.ZScore) || math.IsInf(s.ZScore, 0))
		}
	})

	t.Run("value off mean is degenerate", func(t *testing.T) {
		rec := recordWith(0, 0)
		rec.Features[models.FeatureFlowIATStd] = 4

		_, err := d.Score(rec, baseline)

		assert.ErrorIs(t, err, ErrDegenerateFeature)
		assert.Contains(t, err.Error(), models.FeatureFlowIATStd)
	})
}

func TestScore_SchemaMismatch(t *testing.T) {
	d := NewDetector()

	t.Run("record missing feature", func(t *testing.T) {
		rec := recordWith(0, 0)
		delete(rec.Features, models.FeatureFlowPacketsPerSec)

		_, err := d.Score(rec, unitBaseline())
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("record with infinite value", func(t *testing.T) {
		rec := recordWith(0, 0)
		rec.Features[models.FeatureFlowPacketsPerSec] = math.Inf(1)

		_, err := d.Score(rec, unitBaseline())
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("baseline missing feature", func(t *testing.T) {
		b := unitBaseline()
		delete(b.Features, models.FeatureFlowDuration)

		_, err := d.Score(recordWith(0, 0), b)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("baseline with foreign feature", func(t *testing.T) {
		b := unitBaseline()
		delete(b.Features, models.FeatureFlowDuration)
		b.Features["Destination Port"] = models.FeatureStats{Mean: 1, StdDev: 1}

		_, err := d.Score(recordWith(0, 0), b)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestNewDetectorWithThresholds(t *testing.T) {
	d := NewDetectorWithThresholds(Thresholds{ZScore: 4})
	assert.Equal(t, 4.0, d.Thresholds().ZScore)
	assert.Equal(t, DefaultAttackFraction, d.Thresholds().AttackFraction)

	// z=3 no longer crosses the raised threshold
	v, err := d.Score(recordWith(3, 3), unitBaseline())
	require.NoError(t, err)
	assert.Equal(t, models.LabelBenign, v.Label)
}

func TestGetSeverity(t *testing.T) {
	assert.Equal(t, models.SeverityLow, getSeverity(0.375))
	assert.Equal(t, models.SeverityMedium, getSeverity(0.5))
	assert.Equal(t, models.SeverityHigh, getSeverity(0.75))
	assert.Equal(t, models.SeverityCritical, getSeverity(1))
}
