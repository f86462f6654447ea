// Package pipeline orchestrates the end-to-end occupancy training flow:
// download, feature engineering, dataset split, boosting, evaluation and
// artifact persistence.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/core/dataset"
	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
	"github.com/meterwise/hotspot/core/logger"
	coremetrics "github.com/meterwise/hotspot/core/metrics"
	"github.com/meterwise/hotspot/core/model"
	"github.com/meterwise/hotspot/core/risk"
	"github.com/meterwise/hotspot/infra/notify"
	"github.com/meterwise/hotspot/infra/runlog"
	"github.com/meterwise/hotspot/infra/store"
	"github.com/meterwise/hotspot/internal/eventbus"
	"github.com/meterwise/hotspot/pkg/export"
)

// Fetcher downloads one calendar month of raw transactions.
type Fetcher interface {
	DownloadMonth(ctx context.Context, year, month int, outputDir string, force bool) (path string, rows int, cached bool, err error)
}

// Deps carries the pipeline collaborators. Sink, Runs, Bus and Notifier are
// optional.
type Deps struct {
	Fetcher  Fetcher
	Sink     coremetrics.Sink
	Runs     runlog.Store
	Bus      *eventbus.Bus
	Notifier *notify.Publisher
	Log      logger.Logger
}

// Result summarizes a pipeline execution.
type Result struct {
	RunID         string
	Rows          int
	BestIteration int
	Metrics       export.Metrics
	ArtifactsDir  string
	SnapshotPath  string
	// Skipped is set when no hourly rows were produced and training was
	// aborted without error.
	Skipped bool
}

// Run executes the training pipeline.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	log := deps.Log
	sink := deps.Sink
	if sink == nil {
		sink = coremetrics.NopSink{}
	}

	log.Infof("starting training run %s with %d months", runID, len(cfg.Data.Months))

	rawPaths, err := download(ctx, cfg, deps, sink)
	if err != nil {
		return nil, err
	}

	txs, err := store.LoadTransactions(rawPaths, log)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	txs = feature.CleanTransactions(txs, log)
	publish(deps.Bus, "clean", len(txs))

	hourly := feature.BuildHourlyOccupancy(txs, log)
	publish(deps.Bus, "features", len(hourly))

	snapshotPath := filepath.Join(cfg.Features.ProcessedDir, cfg.Features.HourlyOutput)
	if err := store.WriteHourly(snapshotPath, hourly); err != nil {
		return nil, fmt.Errorf("export hourly snapshot: %w", err)
	}
	log.Infof("saved hourly occupancy snapshot to %s", snapshotPath)

	if len(hourly) == 0 {
		log.Warnf("no hourly data generated, aborting training")
		return &Result{RunID: runID, SnapshotPath: snapshotPath, Skipped: true}, nil
	}

	booster, enc, metrics, err := train(cfg, hourly, log)
	if err != nil {
		return nil, err
	}
	publish(deps.Bus, "train", len(hourly))

	if err := saveArtifacts(cfg, booster, enc, metrics); err != nil {
		return nil, err
	}
	log.Infof("saved model artifacts to %s", cfg.Model.ArtifactsDir)
	publish(deps.Bus, "artifacts", len(hourly))

	if cfg.Risk.CitationsPath != "" {
		if err := buildRiskModel(cfg, log); err != nil {
			return nil, err
		}
	}

	run := coremetrics.TrainingRun{
		RunID:         runID,
		StartedAt:     started,
		Duration:      time.Since(started),
		Rows:          len(hourly),
		BestIteration: booster.BestIteration,
		RMSE: map[string]float64{
			"train":      metrics.Train["rmse"],
			"validation": metrics.Validation["rmse"],
			"test":       metrics.Test["rmse"],
		},
		MAE: map[string]float64{
			"train":      metrics.Train["mae"],
			"validation": metrics.Validation["mae"],
			"test":       metrics.Test["mae"],
		},
	}
	if err := sink.RecordTrainingRun(run); err != nil {
		log.Warnf("record training run: %v", err)
	}
	if deps.Runs != nil {
		rec := runlog.RunRecord{
			RunID:         run.RunID,
			StartedAt:     run.StartedAt,
			DurationMS:    run.Duration.Milliseconds(),
			Rows:          run.Rows,
			BestIteration: run.BestIteration,
			RMSE:          run.RMSE,
			MAE:           run.MAE,
		}
		if err := deps.Runs.Append(ctx, rec); err != nil {
			log.Warnf("append run record: %v", err)
		}
	}
	if deps.Notifier != nil {
		if err := deps.Notifier.PublishTrainingRun(run); err != nil {
			log.Warnf("publish training run: %v", err)
		}
	}

	log.Infof("pipeline completed successfully, run %s", runID)
	return &Result{
		RunID:         runID,
		Rows:          len(hourly),
		BestIteration: booster.BestIteration,
		Metrics:       metrics,
		ArtifactsDir:  cfg.Model.ArtifactsDir,
		SnapshotPath:  snapshotPath,
	}, nil
}

func download(ctx context.Context, cfg *config.Config, deps Deps, sink coremetrics.Sink) ([]string, error) {
	paths := make([]string, 0, len(cfg.Data.Months))
	for _, m := range cfg.Data.Months {
		path, rows, cached, err := deps.Fetcher.DownloadMonth(ctx, m.Year, m.Month, cfg.Data.RawDir, cfg.Data.ForceDownload)
		if err != nil {
			return nil, fmt.Errorf("download %04d-%02d: %w", m.Year, m.Month, err)
		}
		paths = append(paths, path)
		ev := coremetrics.FetchEvent{
			Month:  fmt.Sprintf("%04d-%02d", m.Year, m.Month),
			Rows:   rows,
			Cached: cached,
			Time:   time.Now().UTC(),
		}
		if err := sink.RecordFetch(ev); err != nil {
			deps.Log.Warnf("record fetch: %v", err)
		}
		publish(deps.Bus, "fetch", rows)
	}
	return paths, nil
}

func train(cfg *config.Config, hourly []model.HourlyOccupancy, log logger.Logger) (*gbt.Booster, *feature.StreetEncoder, export.Metrics, error) {
	sp, err := dataset.StratifiedSplit(hourly, cfg.Model.TestSize, cfg.Model.ValSize, cfg.Model.Seed)
	if err != nil {
		return nil, nil, export.Metrics{}, fmt.Errorf("split dataset: %w", err)
	}
	log.Infof("split data: train %d rows, val %d rows, test %d rows", len(sp.Train), len(sp.Val), len(sp.Test))

	enc := feature.NewStreetEncoder(sp.Train)
	xTrain, yTrain := feature.Matrix(sp.Train, enc)
	xVal, yVal := feature.Matrix(sp.Val, enc)
	xTest, yTest := feature.Matrix(sp.Test, enc)

	booster, err := gbt.Train(xTrain, yTrain, xVal, yVal, model.FeatureNames, cfg.Model.Params, log)
	if err != nil {
		return nil, nil, export.Metrics{}, fmt.Errorf("train booster: %w", err)
	}
	log.Infof("trained booster, best iteration %d", booster.BestIteration)

	metrics := export.Metrics{
		Train:         booster.Evaluate(xTrain, yTrain),
		Validation:    booster.Evaluate(xVal, yVal),
		Test:          booster.Evaluate(xTest, yTest),
		BestIteration: booster.BestIteration,
	}
	return booster, enc, metrics, nil
}

func saveArtifacts(cfg *config.Config, booster *gbt.Booster, enc *feature.StreetEncoder, metrics export.Metrics) error {
	dir := cfg.Model.ArtifactsDir
	if _, err := booster.Save(dir); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := enc.Save(filepath.Join(dir, feature.EncoderFileName)); err != nil {
		return fmt.Errorf("save street encoder: %w", err)
	}

	mf, err := os.Create(filepath.Join(dir, "metrics.json"))
	if err != nil {
		return err
	}
	if err := export.WriteMetricsJSON(mf, metrics); err != nil {
		_ = mf.Close()
		return err
	}
	if err := mf.Close(); err != nil {
		return err
	}

	imf, err := os.Create(filepath.Join(dir, "feature_importance.csv"))
	if err != nil {
		return err
	}
	if err := export.WriteImportanceCSV(imf, booster.FeatureImportance()); err != nil {
		_ = imf.Close()
		return err
	}
	return imf.Close()
}

func buildRiskModel(cfg *config.Config, log logger.Logger) error {
	citations, err := store.LoadCitations(cfg.Risk.CitationsPath, store.CitationColumns{
		Datetime:  cfg.Risk.DatetimeColumn,
		Block:     cfg.Risk.BlockColumn,
		Latitude:  cfg.Risk.LatitudeColumn,
		Longitude: cfg.Risk.LongitudeColumn,
	})
	if err != nil {
		return fmt.Errorf("load citations: %w", err)
	}
	m, err := risk.Build(citations)
	if err != nil {
		return fmt.Errorf("build risk model: %w", err)
	}
	if err := m.Save(cfg.Risk.ModelDir); err != nil {
		return fmt.Errorf("save risk model: %w", err)
	}
	log.Infof("saved risk model to %s", cfg.Risk.ModelDir)
	return nil
}

func publish(bus *eventbus.Bus, stage string, rows int) {
	if bus != nil {
		bus.Publish(eventbus.StageEvent{Stage: stage, Rows: rows, Time: time.Now().UTC()})
	}
}
