package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coordinate is a WGS 84 longitude/latitude pair in decimal degrees.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Station is one row of a daily table.
type Station struct {
	ID string

	// Named is false when ID is a synthetic row index.
	Named bool

	Coordinate Coordinate

	// Located is false when the file had no usable coordinates for the station.
	Located bool
}

// DailyTable is one wide daily observation file.
type DailyTable struct {
	Source   string
	Stations []Station
	Days     []time.Time

	// Values is indexed [station][day]; Valid == false marks a missing day.
	Values [][]decimal.NullDecimal
}

// MonthlyTable holds one row per station and one column per month.
// Columns are labels as found in (or destined for) the aggregate CSV; they
// are month-end dates when produced by Aggregate, but a table read from
// disk may carry labels that do not parse.
type MonthlyTable struct {
	Columns  []string
	Stations []Station

	// Values is indexed [station][column].
	Values [][]Reading
}

// Point is one station sample of a month.
type Point struct {
	Coordinate
	Value Reading
}

// PointSet is every station sample of one month.
type PointSet struct {
	Month  YearMonth
	Points []Point
}

// Valid returns the points with an observed value, in input order.
func (ps PointSet) Valid() []Point {
	out := make([]Point, 0, len(ps.Points))
	for _, p := range ps.Points {
		if p.Value.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Extent returns the bounding box of every point location, observed or not.
// ok is false for an empty set.
func (ps PointSet) Extent() (Extent, bool) {
	if len(ps.Points) == 0 {
		return Extent{}, false
	}
	ext := Extent{
		MinLon: ps.Points[0].Lon, MaxLon: ps.Points[0].Lon,
		MinLat: ps.Points[0].Lat, MaxLat: ps.Points[0].Lat,
	}
	for _, p := range ps.Points[1:] {
		ext.MinLon = min(ext.MinLon, p.Lon)
		ext.MaxLon = max(ext.MaxLon, p.Lon)
		ext.MinLat = min(ext.MinLat, p.Lat)
		ext.MaxLat = max(ext.MaxLat, p.Lat)
	}
	return ext, true
}
