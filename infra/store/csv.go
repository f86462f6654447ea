package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meterwise/hotspot/core/logger"
	"github.com/meterwise/hotspot/core/model"
)

// Raw snapshot column names as delivered by the Arlington API.
const (
	colStreet = "sourceStreetDisplayName"
	colStart  = "startDtm"
	colEnd    = "endDtm"
)

// timeLayouts are tried in order when parsing snapshot timestamps. The API
// delivers local timestamps without zone; those are treated as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime parses a snapshot timestamp.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// LoadTransactions reads raw monthly CSV snapshots into transactions.
// Missing files are skipped with a warning; rows with unparseable
// timestamps are dropped.
func LoadTransactions(paths []string, log logger.Logger) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, path := range paths {
		txs, err := loadTransactionFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				if log != nil {
					log.Warnf("skipping missing raw file %s", path)
				}
				continue
			}
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if log != nil {
			log.Infof("loaded %d rows from %s", len(txs), filepath.Base(path))
		}
		out = append(out, txs...)
	}
	return out, nil
}

func loadTransactionFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := columnIndex(header)
	streetIdx, ok1 := idx[colStreet]
	startIdx, ok2 := idx[colStart]
	endIdx, ok3 := idx[colEnd]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("missing required columns in %s", path)
	}

	var out []model.Transaction
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, serr := ParseTime(rec[startIdx])
		end, eerr := ParseTime(rec[endIdx])
		if serr != nil || eerr != nil {
			continue
		}
		out = append(out, model.Transaction{Street: rec[streetIdx], Start: start, End: end})
	}
	return out, nil
}

// WriteHourly persists the hourly occupancy snapshot.
func WriteHourly(path string, recs []model.HourlyOccupancy) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	header := []string{"street", "hour", "occupancy", "day_of_week", "hour_of_day", "month", "is_weekend", "hour_sin", "hour_cos"}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for _, r := range recs {
		rec := []string{
			r.Street,
			r.Hour.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.Itoa(r.Occupancy),
			strconv.Itoa(r.DayOfWeek),
			strconv.Itoa(r.HourOfDay),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.IsWeekend),
			strconv.FormatFloat(r.HourSin, 'f', -1, 64),
			strconv.FormatFloat(r.HourCos, 'f', -1, 64),
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

// LoadHourly reads a snapshot written by WriteHourly. Derived features are
// recomputed from the hour column so the snapshot stays forward compatible.
func LoadHourly(path string) ([]model.HourlyOccupancy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := columnIndex(header)
	streetIdx, ok1 := idx["street"]
	hourIdx, ok2 := idx["hour"]
	occIdx, ok3 := idx["occupancy"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("missing required columns in %s", path)
	}

	var out []model.HourlyOccupancy
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		hour, herr := ParseTime(rec[hourIdx])
		occ, oerr := strconv.Atoi(rec[occIdx])
		if herr != nil || oerr != nil {
			continue
		}
		out = append(out, model.NewHourlyOccupancy(rec[streetIdx], hour, occ))
	}
	return out, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}
