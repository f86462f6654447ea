package risk

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// Citation is a single parking citation observation.
type Citation struct {
	Block string
	Time  time.Time
	Lat   float64
	Lon   float64
}

// HourlyRate stores the citation rate for one (block, hour) cell.
type HourlyRate struct {
	Block      string  `json:"block"`
	Hour       int     `json:"hour"`
	Citations  int     `json:"citations"`
	PerDay     float64 `json:"citations_per_day"`
	Likelihood float64 `json:"likelihood"`
}

// DayRatio stores how a weekday deviates from the block's mean citation
// volume. Monday is day 0.
type DayRatio struct {
	Block     string  `json:"block"`
	DayOfWeek int     `json:"day_of_week"`
	Citations int     `json:"citations"`
	Ratio     float64 `json:"ratio"`
}

// BlockSummary aggregates one block for listing on the dashboard.
type BlockSummary struct {
	Block          string  `json:"block"`
	DisplayName    string  `json:"display_name"`
	TotalCitations int     `json:"total_citations"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PeakLikelihood float64 `json:"peak_likelihood"`
}

// Metadata describes the dataset the model was built from.
type Metadata struct {
	CoverageStart   string          `json:"coverage_start"`
	CoverageEnd     string          `json:"coverage_end"`
	TotalDays       int             `json:"total_days"`
	MaxHourlyRate   float64         `json:"max_hourly_rate"`
	GlobalHourRates map[int]float64 `json:"global_hour_rates"`
}

// Model is a compact lookup model scoring ticket risk by block and hour.
type Model struct {
	Hourly []HourlyRate
	Day    []DayRatio
	Blocks []BlockSummary
	Meta   Metadata

	hourIdx map[hourKey]HourlyRate
	dayIdx  map[dayKey]DayRatio
}

type hourKey struct {
	block string
	hour  int
}

type dayKey struct {
	block string
	day   int
}

// ErrEmptyDataset indicates the citation dataset contained no usable rows.
var ErrEmptyDataset = errors.New("risk: citation dataset is empty, cannot build model")

// Build derives the lookup tables from citations. Rows without a timestamp
// or block are skipped.
func Build(citations []Citation) (*Model, error) {
	rows := make([]Citation, 0, len(citations))
	for _, c := range citations {
		if c.Block == "" || c.Time.IsZero() {
			continue
		}
		c.Block = strings.ToLower(strings.TrimSpace(c.Block))
		rows = append(rows, c)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	minDay, maxDay := rows[0].Time, rows[0].Time
	for _, c := range rows {
		if c.Time.Before(minDay) {
			minDay = c.Time
		}
		if c.Time.After(maxDay) {
			maxDay = c.Time
		}
	}
	totalDays := int(truncateDay(maxDay).Sub(truncateDay(minDay)).Hours()/24) + 1
	if totalDays < 1 {
		totalDays = 1
	}

	hourCounts := make(map[hourKey]int)
	dayCounts := make(map[dayKey]int)
	blockTotals := make(map[string]int)
	latSums := make(map[string]float64)
	lonSums := make(map[string]float64)
	for _, c := range rows {
		hourCounts[hourKey{c.Block, c.Time.Hour()}]++
		dayCounts[dayKey{c.Block, weekday(c.Time)}]++
		blockTotals[c.Block]++
		latSums[c.Block] += c.Lat
		lonSums[c.Block] += c.Lon
	}

	m := &Model{
		hourIdx: make(map[hourKey]HourlyRate, len(hourCounts)),
		dayIdx:  make(map[dayKey]DayRatio, len(dayCounts)),
	}

	maxRate := 0.0
	for _, n := range hourCounts {
		if rate := float64(n) / float64(totalDays); rate > maxRate {
			maxRate = rate
		}
	}
	for k, n := range hourCounts {
		rate := float64(n) / float64(totalDays)
		likelihood := 0.0
		if maxRate > 0 {
			likelihood = clip(rate/maxRate, 0, 1)
		}
		m.Hourly = append(m.Hourly, HourlyRate{Block: k.block, Hour: k.hour, Citations: n, PerDay: rate, Likelihood: likelihood})
	}
	sort.Slice(m.Hourly, func(i, j int) bool {
		if m.Hourly[i].Block != m.Hourly[j].Block {
			return m.Hourly[i].Block < m.Hourly[j].Block
		}
		return m.Hourly[i].Hour < m.Hourly[j].Hour
	})
	for _, h := range m.Hourly {
		m.hourIdx[hourKey{h.Block, h.Hour}] = h
	}

	// Per-block weekday ratios relative to the block mean, clipped to keep
	// sparse blocks from exploding the adjustment.
	blockDaySums := make(map[string]int)
	blockDayCells := make(map[string]int)
	for k, n := range dayCounts {
		blockDaySums[k.block] += n
		blockDayCells[k.block]++
	}
	for k, n := range dayCounts {
		mean := float64(blockDaySums[k.block]) / float64(blockDayCells[k.block])
		ratio := 1.0
		if mean > 0 {
			ratio = clip(float64(n)/mean, 0.3, 2.5)
		}
		m.Day = append(m.Day, DayRatio{Block: k.block, DayOfWeek: k.day, Citations: n, Ratio: ratio})
	}
	sort.Slice(m.Day, func(i, j int) bool {
		if m.Day[i].Block != m.Day[j].Block {
			return m.Day[i].Block < m.Day[j].Block
		}
		return m.Day[i].DayOfWeek < m.Day[j].DayOfWeek
	})
	for _, d := range m.Day {
		m.dayIdx[dayKey{d.Block, d.DayOfWeek}] = d
	}

	peaks := make(map[string]float64)
	for _, h := range m.Hourly {
		if h.Likelihood > peaks[h.Block] {
			peaks[h.Block] = h.Likelihood
		}
	}
	for block, total := range blockTotals {
		m.Blocks = append(m.Blocks, BlockSummary{
			Block:          block,
			DisplayName:    titleCase(block),
			TotalCitations: total,
			Latitude:       latSums[block] / float64(total),
			Longitude:      lonSums[block] / float64(total),
			PeakLikelihood: peaks[block],
		})
	}
	sort.Slice(m.Blocks, func(i, j int) bool {
		if m.Blocks[i].TotalCitations != m.Blocks[j].TotalCitations {
			return m.Blocks[i].TotalCitations > m.Blocks[j].TotalCitations
		}
		return m.Blocks[i].Block < m.Blocks[j].Block
	})

	globalHour := make(map[int]float64)
	globalHourN := make(map[int]int)
	for _, h := range m.Hourly {
		globalHour[h.Hour] += h.PerDay
		globalHourN[h.Hour]++
	}
	for hour, sum := range globalHour {
		globalHour[hour] = sum / float64(globalHourN[hour])
	}

	m.Meta = Metadata{
		CoverageStart:   truncateDay(minDay).Format("2006-01-02"),
		CoverageEnd:     truncateDay(maxDay).Format("2006-01-02"),
		TotalDays:       totalDays,
		MaxHourlyRate:   maxRate,
		GlobalHourRates: globalHour,
	}
	return m, nil
}

// Prediction is the scored risk for one (block, hour, weekday) query.
type Prediction struct {
	Probability float64 `json:"probability"`
	BaseRate    float64 `json:"base_rate"`
	DayRatio    float64 `json:"day_ratio"`
}

// Predict scores the chance of receiving a citation on the block during the
// given hour and weekday. Unknown block-hour cells fall back to the global
// per-hour mean rate; unknown block-day cells fall back to the block's mean
// ratio, then 1.0.
func (m *Model) Predict(block string, hour, dayOfWeek int) Prediction {
	block = strings.ToLower(strings.TrimSpace(block))

	baseRate := 0.0
	if h, ok := m.hourIdx[hourKey{block, hour}]; ok {
		baseRate = h.PerDay
	} else if rate, ok := m.Meta.GlobalHourRates[hour]; ok {
		baseRate = rate
	} else {
		sum, n := 0.0, 0
		for _, v := range m.Meta.GlobalHourRates {
			sum += v
			n++
		}
		if n > 0 {
			baseRate = sum / float64(n)
		}
	}

	ratio := 1.0
	if d, ok := m.dayIdx[dayKey{block, dayOfWeek}]; ok {
		ratio = d.Ratio
	} else {
		sum, n := 0.0, 0
		for _, d := range m.Day {
			if d.Block == block {
				sum += d.Ratio
				n++
			}
		}
		if n > 0 {
			ratio = sum / float64(n)
		}
	}

	prob := clip(1.0-math.Exp(-baseRate*ratio), 0, 0.99)
	return Prediction{Probability: prob, BaseRate: baseRate, DayRatio: ratio}
}

// ListBlocks returns the block summaries sorted by citation volume.
func (m *Model) ListBlocks() []BlockSummary {
	out := make([]BlockSummary, len(m.Blocks))
	copy(out, m.Blocks)
	return out
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekday maps time.Weekday onto the Monday-first convention used by the
// training data.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func titleCase(s string) string {
	var b strings.Builder
	prevSpace := true
	for _, r := range s {
		if prevSpace && r >= 'a' && r <= 'z' {
			b.WriteRune(r - 'a' + 'A')
		} else {
			b.WriteRune(r)
		}
		prevSpace = r == ' '
	}
	return b.String()
}
