package risk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-json"
)

// Artifact file names inside the risk model directory.
const (
	hourlyFile = "hourly.csv"
	dayFile    = "day.csv"
	blocksFile = "blocks.csv"
	metaFile   = "metadata.json"
)

// Save persists the lookup tables and metadata into dir.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	hourly := [][]string{{"block", "hour", "citations", "citations_per_day", "likelihood"}}
	for _, h := range m.Hourly {
		hourly = append(hourly, []string{
			h.Block,
			strconv.Itoa(h.Hour),
			strconv.Itoa(h.Citations),
			formatFloat(h.PerDay),
			formatFloat(h.Likelihood),
		})
	}
	if err := writeCSV(filepath.Join(dir, hourlyFile), hourly); err != nil {
		return err
	}

	day := [][]string{{"block", "day_of_week", "citations", "ratio"}}
	for _, d := range m.Day {
		day = append(day, []string{
			d.Block,
			strconv.Itoa(d.DayOfWeek),
			strconv.Itoa(d.Citations),
			formatFloat(d.Ratio),
		})
	}
	if err := writeCSV(filepath.Join(dir, dayFile), day); err != nil {
		return err
	}

	blocks := [][]string{{"block", "display_name", "total_citations", "latitude", "longitude", "peak_likelihood"}}
	for _, b := range m.Blocks {
		blocks = append(blocks, []string{
			b.Block,
			b.DisplayName,
			strconv.Itoa(b.TotalCitations),
			formatFloat(b.Latitude),
			formatFloat(b.Longitude),
			formatFloat(b.PeakLikelihood),
		})
	}
	if err := writeCSV(filepath.Join(dir, blocksFile), blocks); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m.Meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFile), data, 0o644)
}

// Load restores a model persisted by Save. A missing hourly table or
// metadata file is reported with a hint to run the training pipeline.
func Load(dir string) (*Model, error) {
	hourlyPath := filepath.Join(dir, hourlyFile)
	metaPath := filepath.Join(dir, metaFile)
	if _, err := os.Stat(hourlyPath); err != nil {
		return nil, fmt.Errorf("risk model not found in %s, run the training pipeline first", dir)
	}
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("risk model not found in %s, run the training pipeline first", dir)
	}

	m := &Model{
		hourIdx: make(map[hourKey]HourlyRate),
		dayIdx:  make(map[dayKey]DayRatio),
	}
	if err := json.Unmarshal(metaData, &m.Meta); err != nil {
		return nil, fmt.Errorf("decode risk metadata: %w", err)
	}

	rows, err := readCSV(hourlyPath)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		h := HourlyRate{
			Block:      r[0],
			Hour:       atoi(r[1]),
			Citations:  atoi(r[2]),
			PerDay:     atof(r[3]),
			Likelihood: atof(r[4]),
		}
		m.Hourly = append(m.Hourly, h)
		m.hourIdx[hourKey{h.Block, h.Hour}] = h
	}

	if rows, err = readCSV(filepath.Join(dir, dayFile)); err == nil {
		for _, r := range rows {
			d := DayRatio{Block: r[0], DayOfWeek: atoi(r[1]), Citations: atoi(r[2]), Ratio: atof(r[3])}
			m.Day = append(m.Day, d)
			m.dayIdx[dayKey{d.Block, d.DayOfWeek}] = d
		}
	}
	if rows, err = readCSV(filepath.Join(dir, blocksFile)); err == nil {
		for _, r := range rows {
			m.Blocks = append(m.Blocks, BlockSummary{
				Block:          r[0],
				DisplayName:    r[1],
				TotalCitations: atoi(r[2]),
				Latitude:       atof(r[3]),
				Longitude:      atof(r[4]),
				PeakLikelihood: atof(r[5]),
			})
		}
	}
	return m, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// readCSV returns the data rows, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
