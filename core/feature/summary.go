package feature

import (
	"sort"

	"github.com/meterwise/hotspot/core/model"
)

// StreetCount pairs a street with the number of observed hourly rows.
type StreetCount struct {
	Street string `json:"street"`
	Rows   int    `json:"rows"`
}

// Streets returns the distinct streets in the snapshot with their row
// counts, sorted by count descending then name.
func Streets(recs []model.HourlyOccupancy) []StreetCount {
	counts := make(map[string]int)
	for _, r := range recs {
		counts[r.Street]++
	}
	out := make([]StreetCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StreetCount{Street: s, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rows != out[j].Rows {
			return out[i].Rows > out[j].Rows
		}
		return out[i].Street < out[j].Street
	})
	return out
}

// ObservedMeans returns the mean observed occupancy per hour of day for a
// street on the given weekday (Monday = 0). Hours with no observations stay
// zero.
func ObservedMeans(recs []model.HourlyOccupancy, street string, dayOfWeek int) [24]float64 {
	var sums, counts [24]float64
	for _, r := range recs {
		if r.Street != street || r.DayOfWeek != dayOfWeek {
			continue
		}
		sums[r.HourOfDay] += float64(r.Occupancy)
		counts[r.HourOfDay]++
	}
	var means [24]float64
	for h := 0; h < 24; h++ {
		if counts[h] > 0 {
			means[h] = sums[h] / counts[h]
		}
	}
	return means
}
