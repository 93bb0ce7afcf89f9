package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/analysis"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/explain"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultPreviewRows = 20
	maxPreviewRows     = 500
	defaultHistory     = 50
	maxHistoryRows     = 1000
)

type previewRow struct {
	Features []models.FeatureValue `json:"features"`
	Label    string                `json:"label"`
}

type featureStatsRow struct {
	Feature string  `json:"feature"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

type explainRequest struct {
	APIKey string `json:"api_key"`
}

// getDataset loads the dataset slice and returns its summary and a preview
func (s *Server) getDataset(c *gin.Context) {
	ds, err := s.service.Dataset()
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	limit := queryInt(c, "limit", defaultPreviewRows, maxPreviewRows)
	preview := make([]previewRow, 0, limit)
	for _, rec := range ds.Preview(limit) {
		preview = append(preview, previewRow{Features: rec.Ordered(), Label: rec.Label})
	}

	c.JSON(http.StatusOK, gin.H{
		"path":         ds.Path,
		"max_rows":     ds.MaxRows,
		"rows_read":    ds.RowsRead,
		"records":      len(ds.Records),
		"dropped":      ds.Dropped,
		"loaded_at":    ds.LoadedAt,
		"features":     models.TrackedFeatures(),
		"label_counts": ds.LabelCounts(),
		"preview":      preview,
	})
}

// getBaseline returns per-feature statistics in display order
func (s *Server) getBaseline(c *gin.Context) {
	ds, err := s.service.Dataset()
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	rows := make([]featureStatsRow, 0, models.NumFeatures)
	for _, name := range models.TrackedFeatures() {
		stats := ds.Baseline.Features[name]
		rows = append(rows, featureStatsRow{Feature: name, Mean: stats.Mean, StdDev: stats.StdDev})
	}

	c.JSON(http.StatusOK, gin.H{
		"sample_size": ds.Baseline.SampleSize,
		"features":    rows,
		"thresholds":  s.service.Detector().Thresholds(),
	})
}

// getEvaluation scores the full slice against ground truth
func (s *Server) getEvaluation(c *gin.Context) {
	ev, err := s.service.Evaluate()
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, ev)
}

func (s *Server) createSession(c *gin.Context) {
	session := s.service.NewSession()

	if err := s.store.SaveSession(c.Request.Context(), session); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *Server) getSession(c *gin.Context) {
	session, ok := s.loadSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session)
}

// analyzeRecord draws a random record, scores it and stores the result in the session
func (s *Server) analyzeRecord(c *gin.Context) {
	session, ok := s.loadSession(c)
	if !ok {
		return
	}

	next, result, err := s.service.Analyze(session)
	if err != nil {
		s.respondAnalysisError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := s.store.SaveSession(ctx, next); err != nil {
		s.logger.Error("failed to save session", zap.String("session", next.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	if err := s.store.RecordVerdict(ctx, analysis.VerdictEntry(result)); err != nil {
		s.logger.Warn("failed to record verdict", zap.Error(err))
	}

	if result.Verdict.IsAttack() {
		alert := analysis.AlertFor(result)
		s.logger.Info("attack verdict",
			zap.String("session", next.ID),
			zap.Float64("confidence", result.Verdict.Confidence),
			zap.String("true_label", result.TrueLabel),
		)

		if err := s.store.PublishAlert(ctx, alert); err != nil {
			s.logger.Warn("failed to publish alert", zap.Error(err))
		}
		s.hub.Broadcast("alert", alert)
	}
	s.hub.Broadcast("verdict", result)

	c.JSON(http.StatusOK, gin.H{
		"session":  next,
		"analysis": result,
	})
}

// explainVerdict asks the LLM to narrate the session's last verdict
func (s *Server) explainVerdict(c *gin.Context) {
	session, ok := s.loadSession(c)
	if !ok {
		return
	}

	apiKey := strings.TrimSpace(c.GetHeader("X-Groq-Api-Key"))
	if apiKey == "" && c.Request.ContentLength != 0 {
		var req explainRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		apiKey = strings.TrimSpace(req.APIKey)
	}

	next, text, err := s.service.Explain(c.Request.Context(), session, apiKey)
	switch {
	case errors.Is(err, analysis.ErrNoAnalysis):
		c.JSON(http.StatusConflict, gin.H{"error": "analyze a record before requesting an explanation"})
		return
	case errors.Is(err, explain.ErrMissingCredential):
		c.JSON(http.StatusOK, gin.H{
			"warning": "Please enter your Groq API key to request an AI explanation.",
			"session": session,
		})
		return
	case errors.Is(err, explain.ErrExternalService):
		c.JSON(http.StatusOK, gin.H{
			"warning": "AI explanation is unavailable right now: " + err.Error(),
			"session": session,
		})
		return
	case err != nil:
		s.logger.Error("explanation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to explain verdict"})
		return
	}

	if err := s.store.SaveSession(c.Request.Context(), next); err != nil {
		s.logger.Error("failed to save session", zap.String("session", next.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"explanation": text,
		"session":     next,
	})
}

func (s *Server) getRecentVerdicts(c *gin.Context) {
	limit := queryInt(c, "limit", defaultHistory, maxHistoryRows)

	entries, err := s.store.RecentVerdicts(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verdicts": entries,
	})
}

// getSummaryStats returns dashboard summary statistics
func (s *Server) getSummaryStats(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := s.store.VerdictCounts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := "NORMAL"
	if recent, err := s.store.RecentVerdicts(ctx, 1); err == nil && len(recent) > 0 && recent[0].Label == models.LabelAttack {
		status = "UNDER_ATTACK"
	}

	total := int64(0)
	for _, n := range counts {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"total_verdicts":    total,
		"attack_verdicts":   counts[models.LabelAttack],
		"benign_verdicts":   counts[models.LabelBenign],
		"websocket_clients": s.hub.Count(),
	})
}

func (s *Server) loadSession(c *gin.Context) (models.Session, bool) {
	session, err := s.store.LoadSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return models.Session{}, false
		}
		s.logger.Error("failed to load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return models.Session{}, false
	}
	return session, true
}

// respondAnalysisError maps dataset and scoring errors to distinct responses
func (s *Server) respondAnalysisError(c *gin.Context, err error) {
	kind := analysis.ErrorKind(err)

	status := http.StatusInternalServerError
	switch kind {
	case analysis.KindMissingResource, analysis.KindMissingColumn:
		status = http.StatusServiceUnavailable
	case analysis.KindInsufficientData, analysis.KindSchemaMismatch, analysis.KindDegenerateFeature:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("analysis failed", zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}

func queryInt(c *gin.Context, key string, def, limit int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > limit {
		return limit
	}
	return n
}
