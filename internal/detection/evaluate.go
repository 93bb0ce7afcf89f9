package detection

import (
	"strings"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
)

// groundTruthBenign is the benign label used by the CICIDS2017 flow exports.
const groundTruthBenign = "BENIGN"

// Evaluation compares verdicts with ground-truth labels over a set of records.
type Evaluation struct {
	Total          int     `json:"total"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalseNegatives int     `json:"false_negatives"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
}

// IsAttackLabel reports whether a ground-truth label marks attack traffic.
// Anything that is not BENIGN counts as an attack.
func IsAttackLabel(label string) bool {
	return !strings.EqualFold(strings.TrimSpace(label), groundTruthBenign)
}

// Evaluate scores every record and tallies a confusion matrix.
func (d *Detector) Evaluate(records []models.FlowRecord, baseline models.FeatureBaseline) (Evaluation, error) {
	var ev Evaluation

	for _, rec := range records {
		verdict, err := d.Score(rec, baseline)
		if err != nil {
			return Evaluation{}, err
		}

		ev.Total++
		switch predicted, actual := verdict.IsAttack(), IsAttackLabel(rec.Label); {
		case predicted && actual:
			ev.TruePositives++
		case predicted && !actual:
			ev.FalsePositives++
		case !predicted && actual:
			ev.FalseNegatives++
		default:
			ev.TrueNegatives++
		}
	}

	ev.Accuracy = ratio(ev.TruePositives+ev.TrueNegatives, ev.Total)
	ev.Precision = ratio(ev.TruePositives, ev.TruePositives+ev.FalsePositives)
	ev.Recall = ratio(ev.TruePositives, ev.TruePositives+ev.FalseNegatives)

	return ev, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
