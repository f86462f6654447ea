package risk

import (
	"math"
	"testing"
	"time"
)

func ts(day string, hour int) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t.Add(time.Duration(hour) * time.Hour)
}

// fixtureCitations covers two blocks over a 10 day window. 2024-09-02 is a
// Monday, so weekday indices are stable across the fixture.
func fixtureCitations() []Citation {
	var out []Citation
	// 100 block wilson blvd: 2 citations at 09:00 every day, for 10 days.
	for d := 0; d < 10; d++ {
		day := ts("2024-09-02", 0).AddDate(0, 0, d).Format("2006-01-02")
		out = append(out,
			Citation{Block: " 100 BLOCK WILSON BLVD ", Time: ts(day, 9), Lat: 38.89, Lon: -77.08},
			Citation{Block: "100 block wilson blvd", Time: ts(day, 9), Lat: 38.89, Lon: -77.08},
		)
	}
	// 200 block clarendon blvd: one citation at 14:00 on the first Monday only.
	out = append(out, Citation{Block: "200 block clarendon blvd", Time: ts("2024-09-02", 14), Lat: 38.88, Lon: -77.09})
	return out
}

func TestBuildNormalizesAndCounts(t *testing.T) {
	m, err := Build(fixtureCitations())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Meta.TotalDays != 10 {
		t.Fatalf("total days: got %d want 10", m.Meta.TotalDays)
	}
	if m.Meta.CoverageStart != "2024-09-02" || m.Meta.CoverageEnd != "2024-09-11" {
		t.Fatalf("coverage: %s .. %s", m.Meta.CoverageStart, m.Meta.CoverageEnd)
	}

	h, ok := m.hourIdx[hourKey{"100 block wilson blvd", 9}]
	if !ok {
		t.Fatalf("expected hourly cell for wilson 09:00")
	}
	if h.Citations != 20 {
		t.Fatalf("citations: got %d want 20", h.Citations)
	}
	if math.Abs(h.PerDay-2.0) > 1e-12 {
		t.Fatalf("per-day rate: got %v want 2", h.PerDay)
	}
	if h.Likelihood != 1.0 {
		t.Fatalf("busiest cell must have likelihood 1, got %v", h.Likelihood)
	}

	if len(m.Blocks) != 2 {
		t.Fatalf("blocks: got %d want 2", len(m.Blocks))
	}
	if m.Blocks[0].Block != "100 block wilson blvd" {
		t.Fatalf("blocks must sort by volume, got %q first", m.Blocks[0].Block)
	}
	if m.Blocks[0].DisplayName != "100 Block Wilson Blvd" {
		t.Fatalf("display name: got %q", m.Blocks[0].DisplayName)
	}
}

func TestBuildSkipsUnusableRows(t *testing.T) {
	_, err := Build([]Citation{
		{Block: "", Time: ts("2024-09-02", 9)},
		{Block: "somewhere"},
	})
	if err != ErrEmptyDataset {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestDayRatioClipped(t *testing.T) {
	m, err := Build(fixtureCitations())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, d := range m.Day {
		if d.Ratio < 0.3 || d.Ratio > 2.5 {
			t.Fatalf("ratio out of bounds for %s day %d: %v", d.Block, d.DayOfWeek, d.Ratio)
		}
	}
}

func TestPredictKnownCell(t *testing.T) {
	m, err := Build(fixtureCitations())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Query with raw casing and padding; day 0 is Monday.
	p := m.Predict("  100 Block Wilson Blvd ", 9, 0)
	if math.Abs(p.BaseRate-2.0) > 1e-12 {
		t.Fatalf("base rate: got %v want 2", p.BaseRate)
	}
	want := clip(1.0-math.Exp(-p.BaseRate*p.DayRatio), 0, 0.99)
	if math.Abs(p.Probability-want) > 1e-12 {
		t.Fatalf("probability: got %v want %v", p.Probability, want)
	}
	if p.Probability > 0.99 {
		t.Fatalf("probability must be clipped at 0.99")
	}
}

func TestPredictFallbacks(t *testing.T) {
	m, err := Build(fixtureCitations())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Unknown block at a known hour falls back to the global hour mean.
	p := m.Predict("900 block nowhere st", 9, 0)
	if math.Abs(p.BaseRate-m.Meta.GlobalHourRates[9]) > 1e-12 {
		t.Fatalf("global-hour fallback: got %v want %v", p.BaseRate, m.Meta.GlobalHourRates[9])
	}
	if p.DayRatio != 1.0 {
		t.Fatalf("unknown block day ratio must default to 1, got %v", p.DayRatio)
	}

	// Unknown hour everywhere falls back to the mean of the global rates.
	p = m.Predict("900 block nowhere st", 3, 0)
	sum, n := 0.0, 0
	for _, v := range m.Meta.GlobalHourRates {
		sum += v
		n++
	}
	if math.Abs(p.BaseRate-sum/float64(n)) > 1e-12 {
		t.Fatalf("mean fallback: got %v", p.BaseRate)
	}

	// Known block without that weekday uses the block's mean ratio.
	p = m.Predict("200 block clarendon blvd", 14, 3)
	if d, ok := m.dayIdx[dayKey{"200 block clarendon blvd", 3}]; ok {
		t.Fatalf("fixture assumption broken, cell exists: %+v", d)
	}
	if p.DayRatio <= 0 {
		t.Fatalf("block mean ratio fallback must be positive, got %v", p.DayRatio)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, err := Build(fixtureCitations())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	dir := t.TempDir()
	if err := m.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Meta.TotalDays != m.Meta.TotalDays {
		t.Fatalf("metadata mismatch: %d vs %d", loaded.Meta.TotalDays, m.Meta.TotalDays)
	}
	if len(loaded.Hourly) != len(m.Hourly) || len(loaded.Day) != len(m.Day) || len(loaded.Blocks) != len(m.Blocks) {
		t.Fatalf("table sizes changed across reload")
	}

	want := m.Predict("100 block wilson blvd", 9, 0)
	got := loaded.Predict("100 block wilson blvd", 9, 0)
	if math.Abs(got.Probability-want.Probability) > 1e-9 {
		t.Fatalf("prediction drift after reload: %v vs %v", got.Probability, want.Probability)
	}
}

func TestLoadMissingModel(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing model files")
	}
}
