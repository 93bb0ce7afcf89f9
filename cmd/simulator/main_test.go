package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/analysis"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimulator_Run(t *testing.T) {
	verdicts := []struct {
		label string
		truth string
	}{
		{models.LabelAttack, "DDoS"},
		{models.LabelBenign, "DDoS"},
		{models.LabelBenign, "BENIGN"},
	}
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/sessions":
			_ = json.NewEncoder(w).Encode(models.Session{ID: "s1"})
		case strings.HasSuffix(r.URL.Path, "/analyze"):
			assert.Equal(t, "/api/sessions/s1/analyze", r.URL.Path)
			if calls >= len(verdicts) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"dataset not found","kind":"missing_resource"}`))
				return
			}
			v := verdicts[calls]
			calls++
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"analysis": analysis.Analysis{
					SessionID: "s1",
					Verdict:   models.Verdict{Label: v.label},
					TrueLabel: v.truth,
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tally, err := NewSimulator(srv.URL, zap.NewNop()).Run(4, 0)

	require.NoError(t, err)
	assert.Equal(t, 3, tally.Rounds)
	assert.Equal(t, 1, tally.Attacks)
	assert.Equal(t, 2, tally.Agree)
	assert.Equal(t, 1, tally.Failures)
	assert.InDelta(t, 2.0/3, tally.Agreement(), 1e-12)
}

func TestSimulator_SessionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewSimulator(srv.URL, zap.NewNop()).Run(1, 0)
	assert.Error(t, err)
}
