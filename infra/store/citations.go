package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/meterwise/hotspot/core/risk"
)

// CitationColumns names the columns of a citations CSV.
type CitationColumns struct {
	Datetime  string
	Block     string
	Latitude  string
	Longitude string
}

// LoadCitations reads parking citations with the configured column names.
// Rows with an unparseable timestamp are dropped, matching the cleaning the
// risk model expects.
func LoadCitations(path string, cols CitationColumns) ([]risk.Citation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read citations header: %w", err)
	}
	idx := columnIndex(header)
	dtIdx, ok1 := idx[cols.Datetime]
	blockIdx, ok2 := idx[cols.Block]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("citations file %s missing %s or %s column", path, cols.Datetime, cols.Block)
	}
	latIdx, hasLat := idx[cols.Latitude]
	lonIdx, hasLon := idx[cols.Longitude]

	var out []risk.Citation
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t, terr := ParseTime(rec[dtIdx])
		if terr != nil {
			continue
		}
		c := risk.Citation{Block: rec[blockIdx], Time: t}
		if hasLat {
			c.Lat, _ = strconv.ParseFloat(rec[latIdx], 64)
		}
		if hasLon {
			c.Lon, _ = strconv.ParseFloat(rec[lonIdx], 64)
		}
		out = append(out, c)
	}
	return out, nil
}
