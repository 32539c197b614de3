package csvfile

import (
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/shopspring/decimal"
)

// ReadDaily parses one wide daily station export. LON and LAT are required.
// Columns labelled YYYYMMDD are days; any other column is ignored unless it
// names the station. Sentinel, empty and non-numeric cells are missing.
func ReadDaily(path string, sentinel domain.Sentinel) (domain.DailyTable, error) {
	t, err := readTable(path)
	if err != nil {
		return domain.DailyTable{}, err
	}
	coords, err := t.require(colLon, colLat)
	if err != nil {
		return domain.DailyTable{}, err
	}
	_, nameIdx, named := t.first(stationColumns...)

	var (
		dayIdx []int
		days   []time.Time
	)
	for i, h := range t.header {
		if !domain.IsDayLabel(h) {
			continue
		}
		d, err := domain.ParseDayLabel(h)
		if err != nil {
			return domain.DailyTable{}, fmt.Errorf("%s: %w", path, err)
		}
		dayIdx = append(dayIdx, i)
		days = append(days, d)
	}
	if len(days) == 0 {
		return domain.DailyTable{}, fmt.Errorf("%s: %w", path, domain.ErrNoDailyColumns)
	}

	out := domain.DailyTable{
		Source:   path,
		Days:     days,
		Stations: make([]domain.Station, 0, len(t.rows)),
		Values:   make([][]decimal.NullDecimal, 0, len(t.rows)),
	}
	for r, row := range t.rows {
		st := domain.Station{ID: strconv.Itoa(r)}
		if named {
			if name := cell(row, nameIdx); name != "" {
				st.ID, st.Named = name, true
			}
		}
		st.Coordinate, st.Located = coordinate(row, coords[0], coords[1])

		vals := make([]decimal.NullDecimal, len(dayIdx))
		for k, idx := range dayIdx {
			vals[k] = sentinel.ParseDecimal(cell(row, idx))
		}
		out.Stations = append(out.Stations, st)
		out.Values = append(out.Values, vals)
	}
	return out, nil
}

// WriteDaily writes a daily table in the bureau layout: station name, LON,
// LAT, then one column per day.
func WriteDaily(path string, t domain.DailyTable, sentinel domain.Sentinel) error {
	header := []string{stationColumns[0], colLon, colLat}
	for _, d := range t.Days {
		header = append(header, d.Format("20060102"))
	}
	records := [][]string{header}
	for i, st := range t.Stations {
		rec := []string{st.ID, "", ""}
		if st.Located {
			rec[1], rec[2] = formatFloat(st.Coordinate.Lon), formatFloat(st.Coordinate.Lat)
		}
		for _, v := range t.Values[i] {
			if v.Valid {
				rec = append(rec, v.Decimal.String())
			} else {
				rec = append(rec, sentinel.String())
			}
		}
		records = append(records, rec)
	}
	return writeCSV(path, records)
}
