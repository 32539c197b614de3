package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	table := MonthlyTable{
		Columns:  []string{"2020-01-31", "notadate", "rain-2020-02"},
		Stations: []Station{station("A", 121, 24), station("B", 121.5, 24.5)},
		Values: [][]Reading{
			{Observed(310), Observed(1), Observed(7)},
			{{}, Observed(2), Observed(9)},
		},
	}

	sets, results := Split(table)
	require.Len(t, sets, 2)
	assert.Equal(t, YearMonth{2020, time.January}, sets[0].Month)
	assert.Equal(t, []Point{
		{Coordinate: Coordinate{Lon: 121, Lat: 24}, Value: Observed(310)},
		{Coordinate: Coordinate{Lon: 121.5, Lat: 24.5}},
	}, sets[0].Points)
	assert.Equal(t, "rain_2020_02", sets[1].Month.Stem())

	require.Len(t, results, 1)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "notadate", results[0].Unit)
	assert.Equal(t, StageSplit, results[0].Stage)
}

func TestSplit_DuplicateMonthLastWins(t *testing.T) {
	table := MonthlyTable{
		Columns:  []string{"2020-01-31", "2020-01"},
		Stations: []Station{station("A", 121, 24)},
		Values:   [][]Reading{{Observed(1), Observed(2)}},
	}

	sets, results := Split(table)
	assert.Empty(t, results)
	require.Len(t, sets, 1)
	assert.Equal(t, Observed(2), sets[0].Points[0].Value)
}

func TestPointSet_ValidAndExtent(t *testing.T) {
	ps := PointSet{Points: []Point{
		{Coordinate: Coordinate{Lon: 121, Lat: 24}, Value: Observed(1)},
		{Coordinate: Coordinate{Lon: 122, Lat: 23}},
		{Coordinate: Coordinate{Lon: 120.5, Lat: 25}, Value: Observed(3)},
	}}

	valid := ps.Valid()
	require.Len(t, valid, 2)
	assert.InDelta(t, 3.0, valid[1].Value.Value, 0)

	ext, ok := ps.Extent()
	require.True(t, ok)
	assert.Equal(t, Extent{MinLon: 120.5, MinLat: 23, MaxLon: 122, MaxLat: 25}, ext)

	_, ok = PointSet{}.Extent()
	assert.False(t, ok)
}
