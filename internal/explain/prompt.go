package explain

import (
	"fmt"
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(
	`Explain why this network flow was classified as {{.Label}}.
Keep the explanation simple and student-friendly.

Detection confidence: {{printf "%.2f" .ConfidencePct}}% ({{.Anomalous}} of {{.Tracked}} features flagged as anomalous)

Flow details:
{{range .Lines}}{{.}}
{{end}}`))

type promptData struct {
	Label         string
	ConfidencePct float64
	Anomalous     int
	Tracked       int
	Lines         []string
}

// BuildPrompt renders the single user-role prompt sent to the model.
func BuildPrompt(req Request) (string, error) {
	data := promptData{
		Label:         req.Verdict.Label,
		ConfidencePct: req.Verdict.Confidence * 100,
		Anomalous:     req.Verdict.AnomalousCount,
		Tracked:       req.Verdict.TrackedCount,
	}

	flagged := make(map[string]float64, len(req.Verdict.Scores))
	for _, s := range req.Verdict.Scores {
		if s.Anomalous {
			flagged[s.Feature] = s.ZScore
		}
	}

	for _, fv := range req.Record.Ordered() {
		line := fmt.Sprintf("%s: %g", fv.Feature, fv.Value)
		if z, ok := flagged[fv.Feature]; ok {
			line += fmt.Sprintf(" (anomalous, z-score %.2f)", z)
		}
		data.Lines = append(data.Lines, line)
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
