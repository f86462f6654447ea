package forecast

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/meterwise/hotspot/core/feature"
	"github.com/meterwise/hotspot/core/gbt"
	"github.com/meterwise/hotspot/core/model"
)

// NewStreetsHandler returns an HTTP handler exposing the known streets via
// GET /api/streets.
func NewStreetsHandler(recs []model.HourlyOccupancy) http.Handler {
	streets := feature.Streets(recs)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, streets)
	})
}

// HourForecast is one predicted hour in a forecast response.
type HourForecast struct {
	Hour         int     `json:"hour"`
	Predicted    float64 `json:"predicted"`
	ObservedMean float64 `json:"observed_mean"`
}

// ForecastResponse is the payload of GET /api/forecast.
type ForecastResponse struct {
	Street    string         `json:"street"`
	DayOfWeek int            `json:"day_of_week"`
	Month     int            `json:"month"`
	Hours     []HourForecast `json:"hours"`
}

// NewForecastHandler returns an HTTP handler serving 24-hour occupancy
// forecasts via GET /api/forecast?street=S&day=D[&month=M]. Day 0 is Monday;
// day and month default to the current time.
func NewForecastHandler(recs []model.HourlyOccupancy, booster *gbt.Booster, enc *feature.StreetEncoder) http.Handler {
	known := make(map[string]bool)
	for _, rec := range recs {
		known[rec.Street] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		street := r.URL.Query().Get("street")
		if street == "" {
			http.Error(w, "street parameter is required", http.StatusBadRequest)
			return
		}
		if !known[street] {
			http.Error(w, "unknown street", http.StatusNotFound)
			return
		}

		now := time.Now().UTC()
		day := (int(now.Weekday()) + 6) % 7
		if v := r.URL.Query().Get("day"); v != "" {
			d, err := strconv.Atoi(v)
			if err != nil || d < 0 || d > 6 {
				http.Error(w, "day must be in [0,6]", http.StatusBadRequest)
				return
			}
			day = d
		}
		month := int(now.Month())
		if v := r.URL.Query().Get("month"); v != "" {
			m, err := strconv.Atoi(v)
			if err != nil || m < 1 || m > 12 {
				http.Error(w, "month must be in [1,12]", http.StatusBadRequest)
				return
			}
			month = m
		}

		observed := feature.ObservedMeans(recs, street, day)
		weekend := 0.0
		if day >= 5 {
			weekend = 1
		}
		resp := ForecastResponse{Street: street, DayOfWeek: day, Month: month}
		for h := 0; h < 24; h++ {
			x := []float64{
				enc.Encode(street),
				float64(day),
				float64(h),
				float64(month),
				weekend,
				math.Sin(2 * math.Pi * float64(h) / 24),
				math.Cos(2 * math.Pi * float64(h) / 24),
			}
			resp.Hours = append(resp.Hours, HourForecast{
				Hour:         h,
				Predicted:    booster.Predict(x),
				ObservedMean: observed[h],
			})
		}
		writeJSON(w, resp)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
