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
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download configured months of raw parking transactions",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("fetch")
	if len(cfg.Data.Months) == 0 {
		log.Warnf("no months configured under data.months")
		return nil
	}

	client := arlington.NewClient(
		cfg.Data.BaseURL,
		time.Duration(cfg.Data.TimeoutSeconds)*time.Second,
		arlington.WithPageSize(cfg.Data.PageSize),
		arlington.WithMaxRetries(cfg.Data.MaxRetries),
	)
	for _, m := range cfg.Data.Months {
		path, rows, cached, err := client.DownloadMonth(ctx, m.Year, m.Month, cfg.Data.RawDir, cfg.Data.ForceDownload)
		if err != nil {
			return fmt.Errorf("download %04d-%02d: %w", m.Year, m.Month, err)
		}
		if cached {
			log.Infof("%04d-%02d cached at %s", m.Year, m.Month, path)
		} else {
			log.Infof("%04d-%02d: %d rows -> %s", m.Year, m.Month, rows, path)
		}
	}
	return nil
}
