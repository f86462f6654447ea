package feature

import (
	"math"
	"testing"
	"time"

	"github.com/meterwise/hotspot/core/model"
)

func tx(street string, start, end time.Time) model.Transaction {
	return model.Transaction{Street: street, Start: start, End: end}
}

func TestCleanTransactions(t *testing.T) {
	base := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	txs := []model.Transaction{
		tx("  WILSON BLVD  ", base, base.Add(time.Hour)),
		tx("", base, base.Add(time.Hour)),
		tx("CLARENDON BLVD", base, base),
		tx("CLARENDON BLVD", base.Add(time.Hour), base),
		{Street: "FAIRFAX DR", End: base},
	}
	out := CleanTransactions(txs, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Street != "WILSON BLVD" {
		t.Fatalf("expected trimmed street, got %q", out[0].Street)
	}
}

func TestBuildHourlyOccupancySingleHour(t *testing.T) {
	start := time.Date(2024, 9, 2, 10, 15, 0, 0, time.UTC)
	txs := []model.Transaction{
		tx("WILSON BLVD", start, start.Add(30*time.Minute)),
		tx("WILSON BLVD", start.Add(5*time.Minute), start.Add(20*time.Minute)),
	}
	out := BuildHourlyOccupancy(txs, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 hourly row, got %d", len(out))
	}
	if out[0].Occupancy != 2 {
		t.Fatalf("expected occupancy 2, got %d", out[0].Occupancy)
	}
	if !out[0].Hour.Equal(time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected hour bucket %v", out[0].Hour)
	}
}

func TestBuildHourlyOccupancySpansHours(t *testing.T) {
	// 10:30 to 13:10 touches buckets 10, 11, 12 and 13.
	start := time.Date(2024, 9, 2, 10, 30, 0, 0, time.UTC)
	txs := []model.Transaction{tx("WILSON BLVD", start, start.Add(2*time.Hour+40*time.Minute))}
	out := BuildHourlyOccupancy(txs, nil)
	if len(out) != 4 {
		t.Fatalf("expected 4 hourly rows, got %d", len(out))
	}
	for i, rec := range out {
		if rec.Occupancy != 1 {
			t.Fatalf("row %d: expected occupancy 1, got %d", i, rec.Occupancy)
		}
	}
}

func TestBuildHourlyOccupancyEndOnBoundary(t *testing.T) {
	// A stay ending exactly at 11:00 must not count toward the 11:00 bucket.
	start := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	txs := []model.Transaction{tx("WILSON BLVD", start, start.Add(time.Hour))}
	out := BuildHourlyOccupancy(txs, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 hourly row, got %d", len(out))
	}
	if out[0].HourOfDay != 10 {
		t.Fatalf("expected bucket hour 10, got %d", out[0].HourOfDay)
	}
}

func TestBuildHourlyOccupancyEmpty(t *testing.T) {
	if out := BuildHourlyOccupancy(nil, nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d rows", len(out))
	}
}

func TestCalendarFeatures(t *testing.T) {
	// 2024-09-07 is a Saturday.
	sat := time.Date(2024, 9, 7, 18, 0, 0, 0, time.UTC)
	rec := model.NewHourlyOccupancy("WILSON BLVD", sat, 3)
	if rec.DayOfWeek != 5 {
		t.Fatalf("expected Saturday as day 5, got %d", rec.DayOfWeek)
	}
	if rec.IsWeekend != 1 {
		t.Fatalf("expected weekend flag")
	}
	if rec.Month != 9 {
		t.Fatalf("expected month 9, got %d", rec.Month)
	}
	wantSin := math.Sin(2 * math.Pi * 18 / 24)
	if math.Abs(rec.HourSin-wantSin) > 1e-12 {
		t.Fatalf("hour_sin mismatch: got %v want %v", rec.HourSin, wantSin)
	}
}

func TestStreetEncoderFallback(t *testing.T) {
	recs := []model.HourlyOccupancy{
		{Street: "A", Occupancy: 2},
		{Street: "A", Occupancy: 4},
		{Street: "B", Occupancy: 10},
	}
	enc := NewStreetEncoder(recs)
	if got := enc.Encode("A"); got != 3 {
		t.Fatalf("expected mean 3 for A, got %v", got)
	}
	// Unseen streets use the global mean.
	want := (2.0 + 4.0 + 10.0) / 3.0
	if got := enc.Encode("UNKNOWN"); math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected global mean %v, got %v", want, got)
	}
}

func TestStreetEncoderRoundTrip(t *testing.T) {
	recs := []model.HourlyOccupancy{{Street: "A", Occupancy: 5}}
	enc := NewStreetEncoder(recs)
	path := t.TempDir() + "/enc.json"
	if err := enc.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadStreetEncoder(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Encode("A") != enc.Encode("A") {
		t.Fatalf("round trip mismatch")
	}
}

func TestObservedMeans(t *testing.T) {
	mon10 := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	recs := []model.HourlyOccupancy{
		model.NewHourlyOccupancy("A", mon10, 4),
		model.NewHourlyOccupancy("A", mon10.AddDate(0, 0, 7), 6),
		model.NewHourlyOccupancy("A", mon10.Add(time.Hour), 9),
		model.NewHourlyOccupancy("B", mon10, 100),
	}
	means := ObservedMeans(recs, "A", 0)
	if means[10] != 5 {
		t.Fatalf("expected mean 5 at hour 10, got %v", means[10])
	}
	if means[11] != 9 {
		t.Fatalf("expected 9 at hour 11, got %v", means[11])
	}
	if means[12] != 0 {
		t.Fatalf("expected 0 for unobserved hour, got %v", means[12])
	}
}
