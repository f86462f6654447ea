package feature

import (
	"sort"
	"strings"
	"time"

	"github.com/meterwise/hotspot/core/logger"
	"github.com/meterwise/hotspot/core/model"
)

// CleanTransactions standardizes street names and filters unusable rows.
// Rows with an empty street, missing timestamps or a non-positive duration
// are dropped; remaining timestamps are normalized to UTC.
func CleanTransactions(txs []model.Transaction, log logger.Logger) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		tx.Street = strings.TrimSpace(tx.Street)
		tx.Start = tx.Start.UTC()
		tx.End = tx.End.UTC()
		if !tx.Valid() {
			continue
		}
		out = append(out, tx)
	}
	if log != nil {
		log.Infof("cleaned transactions: %d rows remaining", len(out))
	}
	return out
}

// BuildHourlyOccupancy expands transactions into per-street, per-hour
// occupancy counts. A transaction counts once for every hour bucket it
// touches; the end timestamp is shifted back one second so a stay ending
// exactly on the hour does not spill into the next bucket.
func BuildHourlyOccupancy(txs []model.Transaction, log logger.Logger) []model.HourlyOccupancy {
	type key struct {
		street string
		hour   time.Time
	}
	counts := make(map[key]int)
	for _, tx := range txs {
		startHour := tx.Start.Truncate(time.Hour)
		endHour := tx.End.Add(-time.Second).Truncate(time.Hour)
		if endHour.Before(startHour) {
			continue
		}
		for h := startHour; !h.After(endHour); h = h.Add(time.Hour) {
			counts[key{tx.Street, h}]++
		}
	}

	out := make([]model.HourlyOccupancy, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.NewHourlyOccupancy(k.street, k.hour, n))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Street != out[j].Street {
			return out[i].Street < out[j].Street
		}
		return out[i].Hour.Before(out[j].Hour)
	})
	if log != nil {
		log.Infof("built hourly occupancy dataset with %d rows", len(out))
	}
	return out
}

// Vector returns the numeric feature vector for a record, with the street
// column resolved through the encoder. Column order matches
// model.FeatureNames.
func Vector(rec model.HourlyOccupancy, enc *StreetEncoder) []float64 {
	return []float64{
		enc.Encode(rec.Street),
		float64(rec.DayOfWeek),
		float64(rec.HourOfDay),
		float64(rec.Month),
		float64(rec.IsWeekend),
		rec.HourSin,
		rec.HourCos,
	}
}

// Matrix converts records into a feature matrix and target vector.
func Matrix(recs []model.HourlyOccupancy, enc *StreetEncoder) ([][]float64, []float64) {
	xs := make([][]float64, len(recs))
	ys := make([]float64, len(recs))
	for i, r := range recs {
		xs[i] = Vector(r, enc)
		ys[i] = float64(r.Occupancy)
	}
	return xs, ys
}
