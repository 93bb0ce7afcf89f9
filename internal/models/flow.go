package models

import "math"

// Tracked flow features, in the order they are displayed and prompted.
const (
	FeatureFlowDuration         = "Flow Duration"
	FeatureTotalFwdPackets      = "Total Fwd Packets"
	FeatureTotalBackwardPackets = "Total Backward Packets"
	FeatureTotalLengthFwd       = "Total Length of Fwd Packets"
	FeatureFwdPacketLengthMax   = "Fwd Packet Length Max"
	FeatureFlowIATMean          = "Flow IAT Mean"
	FeatureFlowIATStd           = "Flow IAT Std"
	FeatureFlowPacketsPerSec    = "Flow Packets/s"

	// LabelColumn is the ground-truth column in the source CSV.
	LabelColumn = "Label"
)

// Verdict labels
const (
	LabelBenign = "Benign"
	LabelAttack = "DDoS Attack"
)

// Severity levels
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

var trackedFeatures = [...]string{
	FeatureFlowDuration,
	FeatureTotalFwdPackets,
	FeatureTotalBackwardPackets,
	FeatureTotalLengthFwd,
	FeatureFwdPacketLengthMax,
	FeatureFlowIATMean,
	FeatureFlowIATStd,
	FeatureFlowPacketsPerSec,
}

// TrackedFeatures returns a copy of the feature set used by the baseline and the scorer.
func TrackedFeatures() []string {
	out := make([]string, len(trackedFeatures))
	copy(out, trackedFeatures[:])
	return out
}

// NumFeatures is the size of the tracked feature set.
const NumFeatures = len(trackedFeatures)

// FlowRecord represents one labeled row of aggregated flow statistics.
// Records are built once by the loader and treated as read-only afterwards.
type FlowRecord struct {
	Features map[string]float64 `json:"features"`
	Label    string             `json:"label"`
}

// FeatureValue is a single named value, used for ordered display.
type FeatureValue struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Ordered returns the tracked features of the record in canonical order.
// Missing features are skipped.
func (r FlowRecord) Ordered() []FeatureValue {
	out := make([]FeatureValue, 0, NumFeatures)
	for _, name := range trackedFeatures {
		if v, ok := r.Features[name]; ok {
			out = append(out, FeatureValue{Feature: name, Value: v})
		}
	}
	return out
}

// MissingFeature returns the first tracked feature that is absent or non-finite.
func (r FlowRecord) MissingFeature() (string, bool) {
	for _, name := range trackedFeatures {
		v, ok := r.Features[name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return name, true
		}
	}
	return "", false
}

// FeatureStats is the mean / standard deviation pair of one feature.
type FeatureStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// FeatureBaseline is the normal-behaviour model computed from a reference sample.
type FeatureBaseline struct {
	Features   map[string]FeatureStats `json:"features"`
	SampleSize int                     `json:"sample_size"`
}

// FeatureScore is the per-feature breakdown of a verdict.
type FeatureScore struct {
	Feature   string  `json:"feature"`
	Value     float64 `json:"value"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	ZScore    float64 `json:"z_score"`
	Anomalous bool    `json:"anomalous"`
}

// Verdict is the classification of one flow record.
type Verdict struct {
	Label          string         `json:"label"`      // Benign, DDoS Attack
	Confidence     float64        `json:"confidence"` // 0.0 to 1.0
	Severity       string         `json:"severity"`
	AnomalousCount int            `json:"anomalous_count"`
	TrackedCount   int            `json:"tracked_count"`
	Scores         []FeatureScore `json:"scores"`
}

// IsAttack reports whether the verdict flags the record as an attack.
func (v Verdict) IsAttack() bool {
	return v.Label == LabelAttack
}
