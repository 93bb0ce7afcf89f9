package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/analysis"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/logging"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"go.uber.org/zap"
)

// Simulator plays a dashboard user: it opens a session and keeps pressing
// "analyze", comparing each verdict with the ground-truth label.
type Simulator struct {
	serverURL string
	client    *http.Client
	logger    *zap.Logger
}

// Tally counts verdict agreement with ground truth.
type Tally struct {
	Rounds   int
	Attacks  int
	Agree    int
	Failures int
}

func NewSimulator(serverURL string, logger *zap.Logger) *Simulator {
	return &Simulator{
		serverURL: serverURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type analyzeResponse struct {
	Session  models.Session    `json:"session"`
	Analysis analysis.Analysis `json:"analysis"`
	Error    string            `json:"error"`
	Kind     string            `json:"kind"`
}

// CreateSession opens a new dashboard session
func (s *Simulator) CreateSession() (string, error) {
	var session models.Session
	if err := s.post("/api/sessions", &session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// Analyze requests one random record verdict
func (s *Simulator) Analyze(sessionID string) (analysis.Analysis, error) {
	var resp analyzeResponse
	if err := s.post("/api/sessions/"+sessionID+"/analyze", &resp); err != nil {
		return analysis.Analysis{}, err
	}
	return resp.Analysis, nil
}

func (s *Simulator) post(path string, out interface{}) error {
	resp, err := s.client.Post(s.serverURL+path, "application/json", bytes.NewReader(nil))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var e analyzeResponse
		_ = json.Unmarshal(body, &e)
		return fmt.Errorf("%s: status %d: %s (%s)", path, resp.StatusCode, e.Error, e.Kind)
	}

	return json.Unmarshal(body, out)
}

// Run performs the given number of analyses
func (s *Simulator) Run(rounds int, interval time.Duration) (Tally, error) {
	sessionID, err := s.CreateSession()
	if err != nil {
		return Tally{}, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Info("session created", zap.String("session", sessionID))

	var tally Tally
	for i := 0; i < rounds; i++ {
		if i > 0 && interval > 0 {
			time.Sleep(interval)
		}

		result, err := s.Analyze(sessionID)
		if err != nil {
			tally.Failures++
			s.logger.Warn("analyze failed", zap.Int("round", i+1), zap.Error(err))
			continue
		}

		tally.add(result)

		marker := "✅"
		if result.Verdict.IsAttack() {
			marker = "🚨"
		}
		fmt.Printf("%s %-12s confidence %6.2f%%  ground truth %s\n",
			marker, result.Verdict.Label, result.Verdict.Confidence*100, result.TrueLabel)
	}

	return tally, nil
}

func (t *Tally) add(a analysis.Analysis) {
	t.Rounds++
	if a.Verdict.IsAttack() {
		t.Attacks++
	}
	if a.Verdict.IsAttack() == detection.IsAttackLabel(a.TrueLabel) {
		t.Agree++
	}
}

// Agreement is the fraction of verdicts matching ground truth
func (t Tally) Agreement() float64 {
	if t.Rounds == 0 {
		return 0
	}
	return float64(t.Agree) / float64(t.Rounds)
}

func main() {
	serverURL := flag.String("server", "http://localhost:8888", "dashboard base URL")
	rounds := flag.Int("rounds", 25, "number of records to analyze")
	interval := flag.Duration("interval", 500*time.Millisecond, "pause between analyses")
	flag.Parse()

	logger := logging.Must(logging.DefaultConfig())
	defer logger.Sync()

	fmt.Println("Flow Anomaly Dashboard - Session Simulator")
	fmt.Println("==========================================")

	simulator := NewSimulator(*serverURL, logger)
	tally, err := simulator.Run(*rounds, *interval)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("\n%d analyzed, %d flagged as attacks, %d failed, agreement with ground truth %.1f%%\n",
		tally.Rounds, tally.Attacks, tally.Failures, tally.Agreement()*100)
}
