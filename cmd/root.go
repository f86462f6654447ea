package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Arlington parking occupancy predictor",
	Long: `hotspot downloads Arlington parking-transaction data, engineers hourly
occupancy features, trains a gradient-boosted regression model and serves
forecasts through a dashboard API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
