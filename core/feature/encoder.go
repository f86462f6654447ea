package feature

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/meterwise/hotspot/core/model"
)

// EncoderFileName is the artifact name of the persisted street encoder.
const EncoderFileName = "street_encoding.json"

// StreetEncoder maps street names to their mean occupancy observed on the
// training fold. Unseen streets fall back to the global mean so serving
// never fails on a new street name.
type StreetEncoder struct {
	Means      map[string]float64 `json:"means"`
	GlobalMean float64            `json:"global_mean"`
}

// NewStreetEncoder fits the encoder on training records only. Fitting on
// validation or test rows would leak the target.
func NewStreetEncoder(train []model.HourlyOccupancy) *StreetEncoder {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	all := make([]float64, len(train))
	for i, r := range train {
		sums[r.Street] += float64(r.Occupancy)
		counts[r.Street]++
		all[i] = float64(r.Occupancy)
	}
	means := make(map[string]float64, len(sums))
	for street, sum := range sums {
		means[street] = sum / counts[street]
	}
	global := 0.0
	if len(all) > 0 {
		global = stat.Mean(all, nil)
	}
	return &StreetEncoder{Means: means, GlobalMean: global}
}

// Encode returns the encoded value for a street.
func (e *StreetEncoder) Encode(street string) float64 {
	if v, ok := e.Means[street]; ok {
		return v
	}
	return e.GlobalMean
}

// Save writes the encoder next to the model artifacts.
func (e *StreetEncoder) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadStreetEncoder reads an encoder persisted by Save.
func LoadStreetEncoder(path string) (*StreetEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load street encoder: %w", err)
	}
	var enc StreetEncoder
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("decode street encoder: %w", err)
	}
	return &enc, nil
}
