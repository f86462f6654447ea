package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/core/risk"
)

var (
	riskBlock string
	riskHour  int
	riskDay   int
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score citation risk for a block and hour",
	RunE:  runRisk,
}

func init() {
	riskCmd.Flags().StringVar(&riskBlock, "block", "", "normalized block name")
	riskCmd.Flags().IntVar(&riskHour, "hour", 12, "hour of day [0,23]")
	riskCmd.Flags().IntVar(&riskDay, "day", 0, "day of week, Monday is 0")
	_ = riskCmd.MarkFlagRequired("block")
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	if riskHour < 0 || riskHour > 23 {
		return fmt.Errorf("hour must be in [0,23]")
	}
	if riskDay < 0 || riskDay > 6 {
		return fmt.Errorf("day must be in [0,6]")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := risk.Load(cfg.Risk.ModelDir)
	if err != nil {
		return err
	}
	pred := m.Predict(riskBlock, riskHour, riskDay)
	fmt.Printf("%s hour=%d day=%d: probability %.3f (base rate %.4f/day, day ratio %.2f)\n",
		riskBlock, riskHour, riskDay, pred.Probability, pred.BaseRate, pred.DayRatio)
	return nil
}
