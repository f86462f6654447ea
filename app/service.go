package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/meterwise/hotspot/api/forecast"
	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
	"github.com/meterwise/hotspot/core/risk"
	infralogger "github.com/meterwise/hotspot/infra/logger"
	"github.com/meterwise/hotspot/infra/metrics"
	"github.com/meterwise/hotspot/infra/runlog"
	"github.com/meterwise/hotspot/infra/store"
)

// Service serves occupancy forecasts and risk scores over HTTP.
type Service struct {
	cfg  *config.Config
	mux  *http.ServeMux
	runs runlog.Store
	log  infralogger.Logger
}

// New loads the trained artifacts and wires the dashboard handlers. Missing
// model artifacts fail startup with a hint to run the training pipeline.
func New(cfg *config.Config) (*Service, error) {
	log := infralogger.NewZerologLoggerWithFile("service", infralogger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	snapshotPath := filepath.Join(cfg.Features.ProcessedDir, cfg.Features.HourlyOutput)
	recs, err := store.LoadHourly(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("hourly snapshot not found at %s, run the training pipeline first: %w", snapshotPath, err)
	}
	booster, err := gbt.Load(cfg.Model.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	enc, err := feature.LoadStreetEncoder(filepath.Join(cfg.Model.ArtifactsDir, feature.EncoderFileName))
	if err != nil {
		return nil, err
	}

	// The risk model is optional; the dashboard answers 503 on its routes
	// when citation data was never configured.
	var riskModel *risk.Model
	if cfg.Risk.CitationsPath != "" {
		riskModel, err = risk.Load(cfg.Risk.ModelDir)
		if err != nil {
			return nil, err
		}
	}

	runs, err := runlog.New(runlog.Config{Backend: cfg.Runlog.Backend, Path: cfg.Runlog.Path})
	if err != nil {
		return nil, fmt.Errorf("runlog store: %w", err)
	}
	sink, err := metrics.NewFromConfig(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/streets", forecast.WithMetrics("streets", sink, forecast.NewStreetsHandler(recs)))
	mux.Handle("/api/forecast", forecast.WithMetrics("forecast", sink, forecast.NewForecastHandler(recs, booster, enc)))
	mux.Handle("/api/risk", forecast.WithMetrics("risk", sink, forecast.NewRiskHandler(riskModel)))
	mux.Handle("/api/blocks", forecast.WithMetrics("blocks", sink, forecast.NewBlocksHandler(riskModel)))
	mux.Handle("/api/runs", forecast.WithMetrics("runs", sink, forecast.NewRunsHandler(runs)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Infof("loaded %d hourly rows and model with %d trees", len(recs), len(booster.Trees))
	return &Service{cfg: cfg, mux: mux, runs: runs, log: log}, nil
}

// Handler exposes the dashboard mux, mainly for tests.
func (s *Service) Handler() http.Handler { return s.mux }

// Run serves the dashboard until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()
	s.log.Infof("dashboard listening on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error { return s.runs.Close() }
