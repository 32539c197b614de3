package domain

import "fmt"

// Split turns each month column of the monthly table into a point set.
// Columns whose label does not name a month are reported as skipped, and
// stations without a location are left out of every set. A later column
// for an already-seen month replaces the earlier one, matching the
// overwrite of its output file.
func Split(t MonthlyTable) ([]PointSet, []UnitResult) {
	var (
		sets    []PointSet
		results []UnitResult
		index   = make(map[YearMonth]int)
	)
	for j, label := range t.Columns {
		m, err := ParseMonthLabel(label)
		if err != nil {
			results = append(results, Unsuccessful(StageSplit, label, fmt.Errorf("column %d: %w", j, err)))
			continue
		}

		ps := PointSet{Month: m, Points: make([]Point, 0, len(t.Stations))}
		for i, st := range t.Stations {
			if !st.Located {
				continue
			}
			var r Reading
			if j < len(t.Values[i]) {
				r = t.Values[i][j]
			}
			ps.Points = append(ps.Points, Point{Coordinate: st.Coordinate, Value: r})
		}

		if k, dup := index[m]; dup {
			sets[k] = ps
			continue
		}
		index[m] = len(sets)
		sets = append(sets, ps)
	}
	return sets, results
}
