package detection

import (
	"fmt"
	"math"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

const (
	DefaultZScoreThreshold = 2.0
	DefaultAttackFraction  = 0.25
)

type Detector struct {
	thresholds Thresholds
}

// Thresholds tune the anomaly vote. A feature is anomalous when its z-score is
// strictly above ZScore; a record is an attack when the anomalous fraction is
// strictly above AttackFraction.
type Thresholds struct {
	ZScore         float64 `yaml:"z_score" json:"z_score"`
	AttackFraction float64 `yaml:"attack_fraction" json:"attack_fraction"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ZScore:         DefaultZScoreThreshold,
		AttackFraction: DefaultAttackFraction,
	}
}

func NewDetector() *Detector {
	return &Detector{thresholds: DefaultThresholds()}
}

// NewDetectorWithThresholds creates a detector, falling back to defaults for
// non-positive values.
func NewDetectorWithThresholds(t Thresholds) *Detector {
	def := DefaultThresholds()
	if t.ZScore <= 0 {
		t.ZScore = def.ZScore
	}
	if t.AttackFraction <= 0 {
		t.AttackFraction = def.AttackFraction
	}
	return &Detector{thresholds: t}
}

// Thresholds returns the thresholds in use.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Score classifies one record against the baseline.
func (d *Detector) Score(record models.FlowRecord, baseline models.FeatureBaseline) (models.Verdict, error) {
	if err := checkBaseline(baseline); err != nil {
		return models.Verdict{}, err
	}
	if name, missing := record.MissingFeature(); missing {
		return models.Verdict{}, fmt.Errorf("%w: record has no finite %q", ErrSchemaMismatch, name)
	}

	features := models.TrackedFeatures()
	scores := make([]models.FeatureScore, 0, len(features))
	anomalous := 0

	for _, name := range features {
		stats := baseline.Features[name]
		value := record.Features[name]

		z, err := zScore(value, stats)
		if err != nil {
			return models.Verdict{}, fmt.Errorf("%w: %q (value %g, mean %g)", err, name, value, stats.Mean)
		}

		hit := z > d.thresholds.ZScore
		if hit {
			anomalous++
		}

		scores = append(scores, models.FeatureScore{
			Feature:   name,
			Value:     value,
			Mean:      stats.Mean,
			StdDev:    stats.StdDev,
			ZScore:    z,
			Anomalous: hit,
		})
	}

	confidence := float64(anomalous) / float64(len(features))

	label := models.LabelBenign
	if confidence > d.thresholds.AttackFraction {
		label = models.LabelAttack
	}

	return models.Verdict{
		Label:          label,
		Confidence:     confidence,
		Severity:       getSeverity(confidence),
		AnomalousCount: anomalous,
		TrackedCount:   len(features),
		Scores:         scores,
	}, nil
}

// zScore returns |value-mean|/stddev. A zero deviation is only defined when the
// value sits exactly on the mean.
func zScore(value float64, stats models.FeatureStats) (float64, error) {
	if stats.StdDev == 0 {
		if value == stats.Mean {
			return 0, nil
		}
		return 0, ErrDegenerateFeature
	}
	return math.Abs(value-stats.Mean) / stats.StdDev, nil
}

func checkBaseline(baseline models.FeatureBaseline) error {
	if len(baseline.Features) != models.NumFeatures {
		return fmt.Errorf("%w: baseline has %d features, want %d", ErrSchemaMismatch, len(baseline.Features), models.NumFeatures)
	}
	for _, name := range models.TrackedFeatures() {
		stats, ok := baseline.Features[name]
		if !ok {
			return fmt.Errorf("%w: baseline has no %q", ErrSchemaMismatch, name)
		}
		if !isFinite(stats.Mean) || !isFinite(stats.StdDev) || stats.StdDev < 0 {
			return fmt.Errorf("%w: baseline stats for %q are invalid", ErrSchemaMismatch, name)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// getSeverity determines attack severity based on confidence
func getSeverity(confidence float64) string {
	if confidence >= 0.9 {
		return models.SeverityCritical
	} else if confidence >= 0.7 {
		return models.SeverityHigh
	} else if confidence >= 0.5 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}
