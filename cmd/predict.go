package cmd

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meterwise/hotspot/config"
	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
)

var (
	predictStreet string
	predictDay    int
	predictHour   int
	predictMonth  int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict occupancy for a street and hour",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictStreet, "street", "", "street display name")
	predictCmd.Flags().IntVar(&predictDay, "day", 0, "day of week, Monday is 0")
	predictCmd.Flags().IntVar(&predictHour, "hour", 12, "hour of day [0,23]")
	predictCmd.Flags().IntVar(&predictMonth, "month", 1, "calendar month [1,12]")
	_ = predictCmd.MarkFlagRequired("street")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictDay < 0 || predictDay > 6 {
		return fmt.Errorf("day must be in [0,6]")
	}
	if predictHour < 0 || predictHour > 23 {
		return fmt.Errorf("hour must be in [0,23]")
	}
	if predictMonth < 1 || predictMonth > 12 {
		return fmt.Errorf("month must be in [1,12]")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	booster, err := gbt.Load(cfg.Model.ArtifactsDir)
	if err != nil {
		return err
	}
	enc, err := feature.LoadStreetEncoder(filepath.Join(cfg.Model.ArtifactsDir, feature.EncoderFileName))
	if err != nil {
		return err
	}

	weekend := 0.0
	if predictDay >= 5 {
		weekend = 1
	}
	x := []float64{
		enc.Encode(predictStreet),
		float64(predictDay),
		float64(predictHour),
		float64(predictMonth),
		weekend,
		math.Sin(2 * math.Pi * float64(predictHour) / 24),
		math.Cos(2 * math.Pi * float64(predictHour) / 24),
	}
	fmt.Printf("%s day=%d hour=%d month=%d: predicted occupancy %.2f\n",
		predictStreet, predictDay, predictHour, predictMonth, booster.Predict(x))
	return nil
}
