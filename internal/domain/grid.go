package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultCellSize is roughly 1 km in decimal degrees.
	DefaultCellSize = 0.0083

	// NoDataValue marks grid cells without a value.
	NoDataValue = -9999.0

	// maxGridCells caps grid allocation for absurd extent/cell size pairs.
	maxGridCells = 50_000_000
)

// ErrGridTooLarge means an extent and cell size would need more cells than
// the pipeline is willing to allocate.
var ErrGridTooLarge = errors.New("grid too large")

// Extent is a longitude/latitude bounding box.
type Extent struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Width is the east-west span in degrees.
func (e Extent) Width() float64 { return e.MaxLon - e.MinLon }

// Height is the north-south span in degrees.
func (e Extent) Height() float64 { return e.MaxLat - e.MinLat }

// Bounds converts the extent for spatial index queries.
func (e Extent) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: e.MinLon, Y: e.MinLat},
		Max: geom.Point{X: e.MaxLon, Y: e.MaxLat},
	}
}

// Grid is a single-band raster in row-major order. Row 0 is the northern
// edge; Origin is the top-left corner of cell (0, 0).
type Grid struct {
	Origin    Coordinate
	CellSize  float64
	Cols      int
	Rows      int
	Cells     []float64
	NoData    float64
	HasNoData bool
}

// NewGrid allocates a grid covering ext, every cell set to no-data. The grid
// always has at least one row and column, so a single point or a line of
// points still gets a cell.
func NewGrid(ext Extent, cellSize float64) (Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return Grid{}, fmt.Errorf("invalid cell size %v", cellSize)
	}
	if !(ext.Width() >= 0) || !(ext.Height() >= 0) ||
		math.IsInf(ext.Width(), 0) || math.IsInf(ext.Height(), 0) ||
		math.IsInf(ext.MinLon, 0) || math.IsInf(ext.MaxLat, 0) {
		return Grid{}, fmt.Errorf("invalid extent %+v", ext)
	}
	cols := math.Floor(ext.Width()/cellSize) + 1
	rows := math.Floor(ext.Height()/cellSize) + 1
	if cols*rows > maxGridCells {
		return Grid{}, fmt.Errorf("%.0f x %.0f cells at %v: %w", cols, rows, cellSize, ErrGridTooLarge)
	}

	g := Grid{
		Origin:   Coordinate{Lon: ext.MinLon, Lat: ext.MaxLat},
		CellSize: cellSize,
		Cols:     int(cols),
		Rows:     int(rows),
		NoData:   NoDataValue,
	}
	g.Cells = make([]float64, g.Cols*g.Rows)
	for i := range g.Cells {
		g.Cells[i] = g.NoData
	}
	return g, nil
}

// CellOf returns the cell containing c. ok is false outside the grid.
func (g Grid) CellOf(c Coordinate) (row, col int, ok bool) {
	col = int(math.Floor((c.Lon - g.Origin.Lon) / g.CellSize))
	row = int(math.Floor((g.Origin.Lat - c.Lat) / g.CellSize))
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, 0, false
	}
	return row, col, true
}

// CellCenter returns the coordinate at the center of a cell.
func (g Grid) CellCenter(row, col int) Coordinate {
	return Coordinate{
		Lon: g.Origin.Lon + (float64(col)+0.5)*g.CellSize,
		Lat: g.Origin.Lat - (float64(row)+0.5)*g.CellSize,
	}
}

// LowerLeft returns the bottom-left corner of the grid.
func (g Grid) LowerLeft() Coordinate {
	return Coordinate{Lon: g.Origin.Lon, Lat: g.Origin.Lat - float64(g.Rows)*g.CellSize}
}

// At returns a cell value.
func (g Grid) At(row, col int) float64 {
	return g.Cells[row*g.Cols+col]
}

// Set writes a cell value.
func (g Grid) Set(row, col int, v float64) {
	g.Cells[row*g.Cols+col] = v
}

// IsNoData reports whether a cell holds the no-data value.
func (g Grid) IsNoData(row, col int) bool {
	return g.At(row, col) == g.NoData
}

// Values returns every cell value that is not no-data, in row-major order.
func (g Grid) Values() []float64 {
	out := make([]float64, 0, len(g.Cells))
	for _, v := range g.Cells {
		if v != g.NoData {
			out = append(out, v)
		}
	}
	return out
}

// GridStats summarizes the defined cells of a grid.
type GridStats struct {
	Count  int     `json:"count"`
	NoData int     `json:"no_data"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// Stats computes summary statistics over the defined cells.
func (g Grid) Stats() GridStats {
	vals := g.Values()
	s := GridStats{Count: len(vals), NoData: len(g.Cells) - len(vals)}
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean = stat.Mean(vals, nil)
	return s
}
