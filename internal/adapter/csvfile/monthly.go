package csvfile

import (
	"strconv"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// WriteMonthly writes the aggregate table: LON, LAT, then one column per
// month. Missing readings are written as the sentinel.
func WriteMonthly(path string, t domain.MonthlyTable, sentinel domain.Sentinel) error {
	header := append([]string{colLon, colLat}, t.Columns...)
	records := make([][]string, 0, len(t.Stations)+1)
	records = append(records, header)
	for i, st := range t.Stations {
		rec := make([]string, 0, len(header))
		rec = append(rec, formatFloat(st.Coordinate.Lon), formatFloat(st.Coordinate.Lat))
		for j := range t.Columns {
			var r domain.Reading
			if j < len(t.Values[i]) {
				r = t.Values[i][j]
			}
			rec = append(rec, sentinel.Format(r))
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}

// ReadMonthly reads an aggregate table. Every column other than LON and LAT
// is kept as a month column, parseable or not. Rows with unusable
// coordinates are kept but unlocated.
func ReadMonthly(path string, sentinel domain.Sentinel) (domain.MonthlyTable, error) {
	t, err := readTable(path)
	if err != nil {
		return domain.MonthlyTable{}, err
	}
	coords, err := t.require(colLon, colLat)
	if err != nil {
		return domain.MonthlyTable{}, err
	}

	var valueIdx []int
	out := domain.MonthlyTable{}
	for i, h := range t.header {
		if i == coords[0] || i == coords[1] {
			continue
		}
		valueIdx = append(valueIdx, i)
		out.Columns = append(out.Columns, h)
	}

	for r, row := range t.rows {
		st := domain.Station{ID: strconv.Itoa(r)}
		st.Coordinate, st.Located = coordinate(row, coords[0], coords[1])
		vals := make([]domain.Reading, len(valueIdx))
		for k, idx := range valueIdx {
			vals[k] = sentinel.Parse(cell(row, idx))
		}
		out.Stations = append(out.Stations, st)
		out.Values = append(out.Values, vals)
	}
	return out, nil
}
