package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateOptions tunes monthly aggregation.
type AggregateOptions struct {
	// ZeroAsMissing reports a defined monthly sum of exactly 0 as missing,
	// reproducing the legacy output where an all-dry month and an
	// all-missing month were indistinguishable.
	ZeroAsMissing bool
}

// Exclusion names a station dropped from the monthly table.
type Exclusion struct {
	Station string
	Reason  string
}

// Aggregate sums daily tables into one monthly table.
//
// Month columns are appended table by table in input order; overlapping
// files are not de-duplicated. Station coordinates come from the first table
// that locates the station and are never overridden by later tables. Located
// stations are kept in first-seen order; stations no table locates are
// returned as exclusions.
func Aggregate(tables []DailyTable, opts AggregateOptions) (MonthlyTable, []Exclusion, error) {
	var (
		coords  = make(map[string]Station)
		seen    = make(map[string]bool)
		order   []string
		columns []string
		series  = make(map[string]map[int]Reading)
	)

	for _, t := range tables {
		months := monthSpan(t.Days)
		base := len(columns)
		for _, m := range months {
			columns = append(columns, m.Label())
		}

		for i, st := range t.Stations {
			if !seen[st.ID] {
				seen[st.ID] = true
				order = append(order, st.ID)
			}
			if _, ok := coords[st.ID]; !ok && st.Located {
				coords[st.ID] = st
			}

			sums := monthlySums(t.Days, t.Values[i], months, opts)
			row := series[st.ID]
			if row == nil {
				row = make(map[int]Reading, len(sums))
				series[st.ID] = row
			}
			for j, r := range sums {
				row[base+j] = r
			}
		}
	}

	if len(columns) == 0 {
		return MonthlyTable{}, nil, ErrNoMonthlyData
	}

	out := MonthlyTable{
		Columns:  columns,
		Stations: make([]Station, 0, len(coords)),
		Values:   make([][]Reading, 0, len(coords)),
	}
	var excluded []Exclusion
	for _, id := range order {
		st, ok := coords[id]
		if !ok {
			excluded = append(excluded, Exclusion{Station: id, Reason: "no coordinates"})
			continue
		}
		row := make([]Reading, len(columns))
		for j, r := range series[id] {
			row[j] = r
		}
		out.Stations = append(out.Stations, st)
		out.Values = append(out.Values, row)
	}
	return out, excluded, nil
}

// monthSpan returns every month from the earliest to the latest day, inclusive.
func monthSpan(days []time.Time) []YearMonth {
	if len(days) == 0 {
		return nil
	}
	first, last := MonthOf(days[0]), MonthOf(days[0])
	for _, d := range days[1:] {
		m := MonthOf(d)
		if m.Before(first) {
			first = m
		}
		if last.Before(m) {
			last = m
		}
	}
	var months []YearMonth
	for m := first; !last.Before(m); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// monthlySums sums observed days per month. A month without any observed
// day is missing.
func monthlySums(days []time.Time, values []decimal.NullDecimal, months []YearMonth, opts AggregateOptions) []Reading {
	sums := make([]decimal.Decimal, len(months))
	observed := make([]bool, len(months))
	for k, d := range days {
		if k >= len(values) || !values[k].Valid {
			continue
		}
		j := slices.Index(months, MonthOf(d))
		if j < 0 {
			continue
		}
		sums[j] = sums[j].Add(values[k].Decimal)
		observed[j] = true
	}

	out := make([]Reading, len(months))
	for j := range months {
		if !observed[j] {
			continue
		}
		if opts.ZeroAsMissing && sums[j].IsZero() {
			continue
		}
		v, _ := sums[j].Float64()
		out[j] = Observed(v)
	}
	return out
}
