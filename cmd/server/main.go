package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/analysis"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/config"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/dataset"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/explain"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/logging"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/metrics"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/storage"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	store   storage.Store
	service *analysis.Service
	metrics *metrics.Metrics
	hub     *Hub
	logger  *zap.Logger
	router  *gin.Engine
}

func NewServer(cfg *config.Config, store storage.Store, service *analysis.Service, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	server := &Server{
		cfg:     cfg,
		store:   store,
		service: service,
		metrics: m,
		hub:     NewHub(m, logger),
		logger:  logger,
		router:  router,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// Enable CORS
	s.router.Use(corsMiddleware())

	api := s.router.Group("/api")
	{
		// Dataset and model
		api.GET("/dataset", s.getDataset)
		api.GET("/baseline", s.getBaseline)
		api.GET("/evaluation", s.getEvaluation)

		// Sessions
		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getSession)
		api.POST("/sessions/:id/analyze", s.analyzeRecord)
		api.POST("/sessions/:id/explain", s.explainVerdict)

		// Verdict history
		api.GET("/verdicts/recent", s.getRecentVerdicts)
		api.GET("/stats/summary", s.getSummaryStats)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.hub.Handle)

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Serve static HTML dashboard
	s.router.StaticFile("/", filepath.Join(s.cfg.WebDir, "index.html"))
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, keeping sessions in memory")
		return storage.NewMemoryStore(cfg.SessionTTL), nil
	}

	client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	return client, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	explainer := explain.NewGroqClient(explain.Options{
		BaseURL:     cfg.GroqBaseURL,
		Model:       cfg.GroqModel,
		Temperature: cfg.Temperature,
		Timeout:     cfg.ExplainTimeout,
	})
	service := analysis.NewService(
		dataset.NewCache(logger),
		detection.NewDetectorWithThresholds(cfg.Thresholds),
		explainer,
		m,
		logger,
		analysis.Options{
			DataFile:      cfg.DataFile,
			MaxRows:       cfg.MaxRows,
			DefaultAPIKey: cfg.GroqAPIKey,
		},
	)

	server := NewServer(cfg, store, service, m, logger)

	// Warm the dataset cache; a missing file is reported but the dashboard still starts
	if ds, err := service.Dataset(); err != nil {
		logger.Error("dataset unavailable", zap.String("path", cfg.DataFile), zap.Error(err))
	} else {
		logger.Info("dataset ready", zap.Int("records", len(ds.Records)))
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.hub.CloseAll()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	log.Println("🚀 Starting Flow Anomaly Dashboard Server...")

	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
