package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/meterwise/hotspot/core/gbt"
)

// Metrics is the artifact layout of metrics.json: one block per fold plus
// the best boosting iteration.
type Metrics struct {
	Train         map[string]float64 `json:"train"`
	Validation    map[string]float64 `json:"validation"`
	Test          map[string]float64 `json:"test"`
	BestIteration int                `json:"best_iteration"`
}

// WriteMetricsJSON writes the evaluation metrics to w.
func WriteMetricsJSON(w io.Writer, m Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// WriteImportanceCSV writes feature importances to w.
func WriteImportanceCSV(w io.Writer, imps []gbt.Importance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "gain", "split"}); err != nil {
		return err
	}
	for _, imp := range imps {
		rec := []string{
			imp.Feature,
			strconv.FormatFloat(imp.Gain, 'f', -1, 64),
			strconv.Itoa(imp.Split),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
