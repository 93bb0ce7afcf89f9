// Package analysis implements the dashboard interactions. Every interaction
// takes the caller's Session value and returns the updated one; nothing here
// keeps per-user state.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/dataset"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/explain"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/metrics"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"go.uber.org/zap"
)

// ErrNoAnalysis is returned when an explanation is requested before any record was scored.
var ErrNoAnalysis = errors.New("no analyzed record in session")

// Error kinds reported to clients and metrics.
const (
	KindMissingResource   = "missing_resource"
	KindMissingColumn     = "missing_column"
	KindInsufficientData  = "insufficient_data"
	KindSchemaMismatch    = "schema_mismatch"
	KindDegenerateFeature = "degenerate_feature"
	KindInternal          = "internal"
)

// ErrorKind classifies an analysis error.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, dataset.ErrMissingResource):
		return KindMissingResource
	case errors.Is(err, dataset.ErrMissingColumn):
		return KindMissingColumn
	case errors.Is(err, detection.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, detection.ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, detection.ErrDegenerateFeature):
		return KindDegenerateFeature
	default:
		return KindInternal
	}
}

// Analysis is the result of scoring one sampled record.
type Analysis struct {
	SessionID  string                `json:"session_id"`
	Features   []models.FeatureValue `json:"features"`
	Verdict    models.Verdict        `json:"verdict"`
	TrueLabel  string                `json:"true_label"`
	AnalyzedAt time.Time             `json:"analyzed_at"`
}

type Options struct {
	DataFile      string
	MaxRows       int
	DefaultAPIKey string

	// Rand drives record sampling; a time-seeded source is used when nil
	Rand *rand.Rand
}

type Service struct {
	datasets  *dataset.Cache
	detector  *detection.Detector
	explainer explain.Explainer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      Options

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewService(datasets *dataset.Cache, detector *detection.Detector, explainer explain.Explainer, m *metrics.Metrics, logger *zap.Logger, opts Options) *Service {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		datasets:  datasets,
		detector:  detector,
		explainer: explainer,
		metrics:   m,
		logger:    logger,
		opts:      opts,
		rng:       rng,
		now:       time.Now,
	}
}

// NewSession starts an empty session.
func (s *Service) NewSession() models.Session {
	now := s.now()
	return models.Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Dataset returns the configured dataset slice, loading it on first use.
func (s *Service) Dataset() (*dataset.Dataset, error) {
	ds, err := s.datasets.Get(s.opts.DataFile, s.opts.MaxRows)
	if err != nil {
		return nil, err
	}
	s.metrics.SetDatasetRecords(len(ds.Records))
	return ds, nil
}

// Detector exposes the thresholds in use.
func (s *Service) Detector() *detection.Detector {
	return s.detector
}

// Analyze draws one random record, scores it and stores it in the returned session.
// On error the input session is returned unchanged.
func (s *Service) Analyze(session models.Session) (models.Session, Analysis, error) {
	ds, err := s.Dataset()
	if err != nil {
		s.metrics.ObserveAnalysisError(ErrorKind(err))
		return session, Analysis{}, err
	}

	s.mu.Lock()
	record := ds.Sample(s.rng)
	s.mu.Unlock()

	verdict, err := s.detector.Score(record, ds.Baseline)
	if err != nil {
		s.metrics.ObserveAnalysisError(ErrorKind(err))
		return session, Analysis{}, fmt.Errorf("failed to score record: %w", err)
	}
	s.metrics.ObserveVerdict(verdict.Label)

	now := s.now()
	next := session
	next.Record = &record
	next.Verdict = &verdict
	next.Explanation = ""
	next.Analyses++
	next.UpdatedAt = now

	s.logger.Debug("record analyzed",
		zap.String("session", session.ID),
		zap.String("verdict", verdict.Label),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("true_label", record.Label),
	)

	return next, Analysis{
		SessionID:  session.ID,
		Features:   record.Ordered(),
		Verdict:    verdict,
		TrueLabel:  record.Label,
		AnalyzedAt: now,
	}, nil
}

// Explain asks the explainer to narrate the session's last verdict. An empty
// apiKey falls back to the configured key. Failures leave the session unchanged.
func (s *Service) Explain(ctx context.Context, session models.Session, apiKey string) (models.Session, string, error) {
	if !session.HasAnalysis() {
		return session, "", ErrNoAnalysis
	}
	if apiKey == "" {
		apiKey = s.opts.DefaultAPIKey
	}

	start := time.Now()
	text, err := s.explainer.Explain(ctx, apiKey, explain.Request{
		Record:  *session.Record,
		Verdict: *session.Verdict,
	})
	elapsed := time.Since(start).Seconds()

	switch {
	case errors.Is(err, explain.ErrMissingCredential):
		s.metrics.ObserveExplanation(metrics.ExplainMissingCredential, elapsed)
		return session, "", err
	case err != nil:
		s.metrics.ObserveExplanation(metrics.ExplainError, elapsed)
		s.logger.Warn("explanation failed", zap.String("session", session.ID), zap.Error(err))
		return session, "", err
	}
	s.metrics.ObserveExplanation(metrics.ExplainOK, elapsed)

	next := session
	next.Explanation = text
	next.UpdatedAt = s.now()
	return next, text, nil
}

// Evaluate scores the whole dataset slice against its own baseline.
func (s *Service) Evaluate() (detection.Evaluation, error) {
	ds, err := s.Dataset()
	if err != nil {
		return detection.Evaluation{}, err
	}
	return s.detector.Evaluate(ds.Records, ds.Baseline)
}

// VerdictEntry builds the history row for an analysis.
func VerdictEntry(a Analysis) models.VerdictEntry {
	return models.VerdictEntry{
		ID:         uuid.New().String(),
		SessionID:  a.SessionID,
		Label:      a.Verdict.Label,
		Confidence: a.Verdict.Confidence,
		Severity:   a.Verdict.Severity,
		TrueLabel:  a.TrueLabel,
		Timestamp:  a.AnalyzedAt,
	}
}

// AlertFor builds the alert raised for an attack verdict.
func AlertFor(a Analysis) models.Alert {
	return models.Alert{
		ID:    uuid.New().String(),
		Level: a.Verdict.Severity,
		Title: fmt.Sprintf("%s Detected", a.Verdict.Label),
		Message: fmt.Sprintf("%d of %d features beyond threshold (confidence %.2f%%), ground truth %s",
			a.Verdict.AnomalousCount, a.Verdict.TrackedCount, a.Verdict.Confidence*100, a.TrueLabel),
		SessionID: a.SessionID,
		Timestamp: a.AnalyzedAt,
	}
}
