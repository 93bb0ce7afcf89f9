package detection

import (
	"fmt"
	"math"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

// EstimateBaseline computes the mean and sample standard deviation of every
// tracked feature. Callers must drop rows with missing or non-finite values first.
func EstimateBaseline(records []models.FlowRecord) (models.FeatureBaseline, error) {
	if len(records) == 0 {
		return models.FeatureBaseline{}, fmt.Errorf("%w: no records", ErrInsufficientData)
	}
	if len(records) < 2 {
		return models.FeatureBaseline{}, fmt.Errorf("%w: need at least 2 records, got %d", ErrInsufficientData, len(records))
	}

	features := models.TrackedFeatures()
	sums := make([]float64, len(features))

	for i, rec := range records {
		for j, name := range features {
			v, ok := rec.Features[name]
			if !ok {
				return models.FeatureBaseline{}, fmt.Errorf("%w: record %d has no %q", ErrSchemaMismatch, i, name)
			}
			sums[j] += v
		}
	}

	n := float64(len(records))
	baseline := models.FeatureBaseline{
		Features:   make(map[string]models.FeatureStats, len(features)),
		SampleSize: len(records),
	}

	for j, name := range features {
		mean := sums[j] / n

		// two-pass variance
		sq := 0.0
		for _, rec := range records {
			d := rec.Features[name] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / (n - 1))

		if std == 0 {
			return models.FeatureBaseline{}, fmt.Errorf("%w: feature %q has zero variance", ErrInsufficientData, name)
		}

		baseline.Features[name] = models.FeatureStats{Mean: mean, StdDev: std}
	}

	return baseline, nil
}
