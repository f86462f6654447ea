package arlington

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// MonthFileName returns the raw snapshot name for a calendar month.
func MonthFileName(year, month int) string {
	return fmt.Sprintf("parking_transactions_%04d-%02d.csv", year, month)
}

// DownloadMonth fetches one calendar month into outputDir and returns the
// written path, the number of rows written and whether an existing snapshot
// was reused. An existing snapshot is reused unless force is set. A month
// with no data produces an empty file so reruns skip it.
func (c *Client) DownloadMonth(ctx context.Context, year, month int, outputDir string, force bool) (string, int, bool, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, false, err
	}
	outputPath := filepath.Join(outputDir, MonthFileName(year, month))
	if _, err := os.Stat(outputPath); err == nil && !force {
		c.log.Infof("skipping existing raw file %s", outputPath)
		return outputPath, 0, true, nil
	}

	endYear, endMonth := year, month+1
	if month == 12 {
		endYear, endMonth = year+1, 1
	}
	startISO := fmt.Sprintf("%04d-%02d-01T00:00:00Z", year, month)
	endISO := fmt.Sprintf("%04d-%02d-01T00:00:00Z", endYear, endMonth)

	var rows []Row
	err := c.FetchRange(ctx, startISO, endISO, func(batch []Row) error {
		rows = append(rows, batch...)
		return nil
	})
	if err != nil {
		return "", 0, false, err
	}

	if len(rows) == 0 {
		c.log.Warnf("no rows retrieved for %04d-%02d", year, month)
		if err := os.WriteFile(outputPath, nil, 0o644); err != nil {
			return "", 0, false, err
		}
		return outputPath, 0, false, nil
	}

	if err := writeRows(outputPath, rows); err != nil {
		return "", 0, false, err
	}
	c.log.Infof("wrote %d rows to %s", len(rows), outputPath)
	return outputPath, len(rows), false, nil
}

// writeRows persists raw API rows as CSV with a sorted header taken from the
// first row's keys.
func writeRows(path string, rows []Row) error {
	fields := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		_ = f.Close()
		return err
	}
	rec := make([]string, len(fields))
	for _, row := range rows {
		for i, k := range fields {
			rec[i] = formatValue(row[k])
		}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
