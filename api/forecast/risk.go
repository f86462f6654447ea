package forecast

import (
	"net/http"
	"strconv"

	"github.com/meterwise/hotspot/core/risk"
)

// RiskResponse is the payload of GET /api/risk.
type RiskResponse struct {
	Block       string  `json:"block"`
	Hour        int     `json:"hour"`
	DayOfWeek   int     `json:"day_of_week"`
	Probability float64 `json:"probability"`
	BaseRate    float64 `json:"base_rate"`
	DayRatio    float64 `json:"day_ratio"`
}

// NewRiskHandler returns an HTTP handler scoring citation risk via
// GET /api/risk?block=B&hour=H&day=D. A nil model answers 503 so the
// dashboard degrades gracefully when no citation data was configured.
func NewRiskHandler(m *risk.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if m == nil {
			http.Error(w, "risk model not available", http.StatusServiceUnavailable)
			return
		}
		block := r.URL.Query().Get("block")
		if block == "" {
			http.Error(w, "block parameter is required", http.StatusBadRequest)
			return
		}
		hour, err := strconv.Atoi(r.URL.Query().Get("hour"))
		if err != nil || hour < 0 || hour > 23 {
			http.Error(w, "hour must be in [0,23]", http.StatusBadRequest)
			return
		}
		day, err := strconv.Atoi(r.URL.Query().Get("day"))
		if err != nil || day < 0 || day > 6 {
			http.Error(w, "day must be in [0,6]", http.StatusBadRequest)
			return
		}

		pred := m.Predict(block, hour, day)
		writeJSON(w, RiskResponse{
			Block:       block,
			Hour:        hour,
			DayOfWeek:   day,
			Probability: pred.Probability,
			BaseRate:    pred.BaseRate,
			DayRatio:    pred.DayRatio,
		})
	})
}

// NewBlocksHandler lists the risk model's blocks via GET /api/blocks.
func NewBlocksHandler(m *risk.Model) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if m == nil {
			http.Error(w, "risk model not available", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, m.ListBlocks())
	})
}
