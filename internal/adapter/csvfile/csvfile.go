// Package csvfile reads and writes the pipeline's flat CSV tables: wide
// daily station exports, the monthly aggregate and the per-month point files.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// RainfallColumn is the value column of month point files.
const RainfallColumn = "RAINFALL"

const (
	colLon   = "LON"
	colLat   = "LAT"
	colValue = "Value"
)

// stationColumns are the accepted station name headers, in priority order.
var stationColumns = []string{"站名", "Station", "STATION", "Name", "NAME"}

// table is a parsed CSV file with a normalized header.
type table struct {
	source string
	header []string
	index  map[string]int
	rows   [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	t := &table{source: path, index: make(map[string]int), rows: rows[1:]}
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		t.header = append(t.header, h)
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t, nil
}

// require returns the index of each named column.
func (t *table) require(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, ok := t.index[n]
		if !ok {
			return nil, &domain.MissingColumnError{Source: t.source, Column: n}
		}
		out[i] = idx
	}
	return out, nil
}

func (t *table) first(names ...string) (string, int, bool) {
	for _, n := range names {
		if idx, ok := t.index[n]; ok {
			return n, idx, true
		}
	}
	return "", 0, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// coordinate parses a LON/LAT pair. ok is false when either is blank, not a
// number, NaN or infinite.
func coordinate(row []string, lonIdx, latIdx int) (domain.Coordinate, bool) {
	lon, errLon := strconv.ParseFloat(cell(row, lonIdx), 64)
	lat, errLat := strconv.ParseFloat(cell(row, latIdx), 64)
	if errLon != nil || errLat != nil || !finite(lon) || !finite(lat) {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lon: lon, Lat: lat}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeCSV replaces path with the given records.
func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// List returns the files in dir matching a glob pattern, sorted by name. A
// missing dir is domain.ErrNoInputDir.
func List(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("%s: %w", dir, domain.ErrNoInputDir)
	}
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// Stem returns a file's base name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
