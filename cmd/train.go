package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/infra/arlington"
	"github.com/meterwise/hotspot/infra/logger"
	"github.com/meterwise/hotspot/infra/metrics"
	"github.com/meterwise/hotspot/infra/notify"
	"github.com/meterwise/hotspot/infra/runlog"
	"github.com/meterwise/hotspot/internal/eventbus"
	"github.com/meterwise/hotspot/pipeline"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the occupancy training pipeline",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewZerologLoggerWithFile("train", logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	sink, err := metrics.NewFromConfig(cfg.Metrics)
	if err != nil {
		return err
	}
	runs, err := runlog.New(runlog.Config{Backend: cfg.Runlog.Backend, Path: cfg.Runlog.Path})
	if err != nil {
		return fmt.Errorf("runlog store: %w", err)
	}
	defer func() {
		if err := runs.Close(); err != nil {
			log.Errorf("runlog close: %v", err)
		}
	}()

	notifier, err := notify.NewPublisher(cfg.Notify)
	if err != nil {
		return err
	}
	defer notifier.Close()

	bus := eventbus.New()
	defer bus.Close()
	progress := bus.Subscribe()
	go func() {
		for ev := range progress {
			log.Debugw("pipeline stage", map[string]any{"stage": ev.Stage, "rows": ev.Rows})
		}
	}()

	fetcher := arlington.NewClient(
		cfg.Data.BaseURL,
		time.Duration(cfg.Data.TimeoutSeconds)*time.Second,
		arlington.WithPageSize(cfg.Data.PageSize),
		arlington.WithMaxRetries(cfg.Data.MaxRetries),
	)

	res, err := pipeline.Run(ctx, cfg, pipeline.Deps{
		Fetcher:  fetcher,
		Sink:     sink,
		Runs:     runs,
		Bus:      bus,
		Notifier: notifier,
		Log:      log,
	})
	if err != nil {
		return err
	}
	if res.Skipped {
		log.Warnf("training skipped: no hourly data")
		return nil
	}
	log.Infof("run %s finished: %d rows, best iteration %d, test rmse %.4f",
		res.RunID, res.Rows, res.BestIteration, res.Metrics.Test["rmse"])
	return nil
}
