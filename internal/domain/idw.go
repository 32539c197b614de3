package domain

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// DefaultIDWPower is the classic inverse-square weighting.
const DefaultIDWPower = 2.0

// coincident is the distance below which a cell center is treated as
// sitting on a sample.
const coincident = 1e-12

// IDW interpolates every cell center by inverse-distance weighting.
//
// The zero value of Power means DefaultIDWPower. SearchRadius <= 0 uses every
// sample; a positive radius limits the search and leaves cells with no sample
// in range as no-data. MaxNeighbors <= 0 uses every candidate, otherwise only
// the nearest ones.
type IDW struct {
	CellSize     float64
	Power        float64
	SearchRadius float64
	MaxNeighbors int
}

func (IDW) Name() string { return "idw" }

func (w IDW) Rasterize(ctx context.Context, ps PointSet) (Grid, error) {
	valid, g, err := prepareGrid(ps, w.CellSize)
	if err != nil {
		return Grid{}, err
	}
	s := w.newSearcher(valid)
	for row := 0; row < g.Rows; row++ {
		if err := ctx.Err(); err != nil {
			return Grid{}, err
		}
		for col := 0; col < g.Cols; col++ {
			if v, ok := s.valueAt(g.CellCenter(row, col)); ok {
				g.Set(row, col, v)
			} else {
				g.HasNoData = true
			}
		}
	}
	return g, nil
}

// ValueAt interpolates a single location from the observed points.
func (w IDW) ValueAt(c Coordinate, points []Point) (float64, bool) {
	var valid []Point
	for _, p := range points {
		if p.Value.Valid {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	return w.newSearcher(valid).valueAt(c)
}

func (w IDW) power() float64 {
	if w.Power == 0 {
		return DefaultIDWPower
	}
	return w.Power
}

// indexedPoint is a sample stored in the R-tree.
type indexedPoint struct {
	geom.Point
	i int
}

type searcher struct {
	points []Point
	power  float64
	radius float64
	k      int
	tree   *rtree.Rtree
}

func (w IDW) newSearcher(points []Point) *searcher {
	s := &searcher{points: points, power: w.power(), radius: w.SearchRadius, k: w.MaxNeighbors}
	if s.radius > 0 {
		s.tree = rtree.NewTree(25, 50)
		for i, p := range points {
			s.tree.Insert(&indexedPoint{Point: geom.Point{X: p.Lon, Y: p.Lat}, i: i})
		}
	}
	return s
}

type neighbor struct {
	i    int
	dist float64
}

// candidates returns samples in search range, ordered by input index.
func (s *searcher) candidates(c Coordinate) []neighbor {
	var out []neighbor
	if s.tree == nil {
		out = make([]neighbor, len(s.points))
		for i, p := range s.points {
			out[i] = neighbor{i: i, dist: distance(c, p.Coordinate)}
		}
		return out
	}

	box := &geom.Bounds{
		Min: geom.Point{X: c.Lon - s.radius, Y: c.Lat - s.radius},
		Max: geom.Point{X: c.Lon + s.radius, Y: c.Lat + s.radius},
	}
	for _, hit := range s.tree.SearchIntersect(box) {
		ip := hit.(*indexedPoint)
		d := distance(c, s.points[ip.i].Coordinate)
		if d <= s.radius {
			out = append(out, neighbor{i: ip.i, dist: d})
		}
	}
	slices.SortFunc(out, func(a, b neighbor) int { return cmp.Compare(a.i, b.i) })
	return out
}

func (s *searcher) valueAt(c Coordinate) (float64, bool) {
	near := s.candidates(c)
	if len(near) == 0 {
		return 0, false
	}
	if s.k > 0 && len(near) > s.k {
		slices.SortStableFunc(near, func(a, b neighbor) int { return cmp.Compare(a.dist, b.dist) })
		near = near[:s.k]
	}

	var num, den float64
	for _, n := range near {
		if n.dist < coincident {
			return s.points[n.i].Value.Value, true
		}
		wt := 1 / math.Pow(n.dist, s.power)
		num += wt * s.points[n.i].Value.Value
		den += wt
	}
	return num / den, true
}

func distance(a, b Coordinate) float64 {
	return math.Hypot(a.Lon-b.Lon, a.Lat-b.Lat)
}
