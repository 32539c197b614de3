package csvfile

import (
	"fmt"
	"path/filepath"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// PointSetPattern matches month point files.
const PointSetPattern = "rain_*.csv"

// WritePointSet writes dir/rain_YYYY_MM.csv, replacing any earlier file for
// the month, and returns its path.
func WritePointSet(dir string, ps domain.PointSet, sentinel domain.Sentinel) (string, error) {
	path := filepath.Join(dir, ps.Month.Stem()+".csv")
	records := make([][]string, 0, len(ps.Points)+1)
	records = append(records, []string{colLon, colLat, RainfallColumn})
	for _, p := range ps.Points {
		records = append(records, []string{formatFloat(p.Lon), formatFloat(p.Lat), sentinel.Format(p.Value)})
	}
	if err := writeCSV(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// ReadPointSet reads a month point file. The month comes from the file
// name. The value column is RAINFALL, or Value when RAINFALL is absent; the
// column actually used is returned. Rows with unusable coordinates are
// dropped.
func ReadPointSet(path string, sentinel domain.Sentinel) (domain.PointSet, string, error) {
	month, err := domain.ParseStem(Stem(path))
	if err != nil {
		return domain.PointSet{}, "", fmt.Errorf("%s: %w", path, err)
	}
	t, err := readTable(path)
	if err != nil {
		return domain.PointSet{}, "", err
	}
	coords, err := t.require(colLon, colLat)
	if err != nil {
		return domain.PointSet{}, "", err
	}
	valueCol, valueIdx, ok := t.first(RainfallColumn, colValue)
	if !ok {
		return domain.PointSet{}, "", &domain.MissingColumnError{Source: path, Column: RainfallColumn}
	}

	ps := domain.PointSet{Month: month, Points: make([]domain.Point, 0, len(t.rows))}
	for _, row := range t.rows {
		c, ok := coordinate(row, coords[0], coords[1])
		if !ok {
			continue
		}
		ps.Points = append(ps.Points, domain.Point{Coordinate: c, Value: sentinel.Parse(cell(row, valueIdx))})
	}
	return ps, valueCol, nil
}

// ListPointSets returns the month point files in dir, sorted by name. Files
// that match the pattern but do not carry a valid month are left out.
func ListPointSets(dir string) ([]string, error) {
	matches, err := List(dir, PointSetPattern)
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		if _, err := domain.ParseStem(Stem(m)); err == nil {
			out = append(out, m)
		}
	}
	return out, nil
}
