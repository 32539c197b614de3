package domain

import (
	"context"
	"fmt"
)

// Rasterizer turns one month's point set into a grid. A run picks one
// strategy for the whole batch.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, ps PointSet) (Grid, error)
}

// FeatureToRaster assigns each observed point to the cell that contains it.
// When several points share a cell the last one in input order wins. Cells
// without a point stay no-data.
type FeatureToRaster struct {
	CellSize float64
}

func (FeatureToRaster) Name() string { return "feature" }

func (f FeatureToRaster) Rasterize(ctx context.Context, ps PointSet) (Grid, error) {
	valid, g, err := prepareGrid(ps, f.CellSize)
	if err != nil {
		return Grid{}, err
	}
	for _, p := range valid {
		if err := ctx.Err(); err != nil {
			return Grid{}, err
		}
		row, col, ok := g.CellOf(p.Coordinate)
		if !ok {
			continue
		}
		g.Set(row, col, p.Value.Value)
	}
	g.HasNoData = true
	return g, nil
}

// prepareGrid drops missing points and allocates an empty grid over the
// extent of every station in the set, so all months of one run share a grid.
func prepareGrid(ps PointSet, cellSize float64) ([]Point, Grid, error) {
	valid := ps.Valid()
	if len(valid) == 0 {
		return nil, Grid{}, &EmptyPointSetError{Month: ps.Month}
	}
	ext, _ := ps.Extent()
	g, err := NewGrid(ext, cellSize)
	if err != nil {
		return nil, Grid{}, fmt.Errorf("grid for %s: %w", ps.Month, err)
	}
	return valid, g, nil
}
