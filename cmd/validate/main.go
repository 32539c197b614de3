// Command validate cross-checks the outputs of a batch against its inputs:
// the monthly aggregate against the daily files, every month point file
// against the aggregate, and every grid against its point file.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input-dir data \
//	  -aggregate output/monthly.csv \
//	  -month-dir output/months \
//	  -raster-dir output/rasters \
//	  -legend-dir output/legends
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rain-grid-etl/internal/adapter/asciigrid"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/legend"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"gonum.org/v1/gonum/floats"
)

const tolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type paths struct {
	inputDir, glob, aggregate, monthDir, rasterDir, legendDir string

	zeroAsMissing bool
}

func main() {
	var p paths
	flag.StringVar(&p.inputDir, "input-dir", "data", "directory with daily CSV files")
	flag.StringVar(&p.glob, "input-glob", "*.csv", "daily file pattern")
	flag.StringVar(&p.aggregate, "aggregate", "output/monthly.csv", "monthly aggregate CSV")
	flag.StringVar(&p.monthDir, "month-dir", "output/months", "directory with month point files")
	flag.StringVar(&p.rasterDir, "raster-dir", "output/rasters", "directory with month grids")
	flag.StringVar(&p.legendDir, "legend-dir", "", "directory with legends (optional)")
	flag.BoolVar(&p.zeroAsMissing, "zero-as-missing", false, "the batch ran with ZERO_AS_MISSING")
	flag.Parse()

	os.Exit(run(p))
}

func run(p paths) int {
	sentinel := domain.DefaultSentinel

	fmt.Println("=== Rain Grid Integrity Validation ===")
	fmt.Println()

	monthly, err := csvfile.ReadMonthly(p.aggregate, sentinel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load aggregate: %v\n", err)
		return 1
	}
	monthFiles, err := csvfile.ListPointSets(p.monthDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list month files: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateAggregate(p, monthly, sentinel),
		validateMonthFiles(monthly, p.monthDir, sentinel),
		validateRasters(monthFiles, p.rasterDir, sentinel),
	}
	if p.legendDir != "" {
		phases = append(phases, validateLegends(p.rasterDir, p.legendDir))
	}

	fmt.Println()
	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Aggregate: %d stations x %d months, %d month files\n",
		len(monthly.Stations), len(monthly.Columns), len(monthFiles))

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateAggregate recomputes the monthly table from the daily files.
func validateAggregate(p paths, got domain.MonthlyTable, sentinel domain.Sentinel) *phase {
	ph := &phase{name: "Aggregate matches daily inputs"}

	files, err := csvfile.List(p.inputDir, p.glob)
	if err != nil {
		ph.errorf("list inputs: %v", err)
		return ph
	}
	var tables []domain.DailyTable
	for _, f := range files {
		t, err := csvfile.ReadDaily(f, sentinel)
		if err != nil {
			fmt.Printf("  skipping %s: %v\n", f, err)
			continue
		}
		tables = append(tables, t)
	}
	want, _, err := domain.Aggregate(tables, domain.AggregateOptions{ZeroAsMissing: p.zeroAsMissing})
	if err != nil {
		ph.errorf("aggregate inputs: %v", err)
		return ph
	}

	if len(got.Columns) != len(want.Columns) {
		ph.errorf("columns: got %d, want %d", len(got.Columns), len(want.Columns))
		return ph
	}
	for j := range want.Columns {
		if got.Columns[j] != want.Columns[j] {
			ph.errorf("column %d: got %q, want %q", j, got.Columns[j], want.Columns[j])
		}
	}

	// Stations with unresolved names are excluded in both; compare by coordinate.
	index := make(map[domain.Coordinate]int, len(got.Stations))
	for i, st := range got.Stations {
		index[st.Coordinate] = i
	}
	for i, st := range want.Stations {
		gi, ok := index[st.Coordinate]
		if !ok {
			ph.errorf("station %s (%g, %g) missing from aggregate", st.ID, st.Coordinate.Lon, st.Coordinate.Lat)
			continue
		}
		if len(got.Values[gi]) < len(want.Columns) {
			ph.errorf("station %s: %d values, want %d", st.ID, len(got.Values[gi]), len(want.Columns))
			continue
		}
		for j := range want.Columns {
			if !sameReading(got.Values[gi][j], want.Values[i][j]) {
				ph.errorf("station %s %s: got %s, want %s", st.ID, want.Columns[j],
					sentinel.Format(got.Values[gi][j]), sentinel.Format(want.Values[i][j]))
			}
		}
	}
	return ph
}

// validateMonthFiles checks every parseable month column has a point file
// holding the same values.
func validateMonthFiles(monthly domain.MonthlyTable, dir string, sentinel domain.Sentinel) *phase {
	ph := &phase{name: "Month files match aggregate"}

	sets, _ := domain.Split(monthly)
	for _, want := range sets {
		path := filepath.Join(dir, want.Month.Stem()+".csv")
		got, _, err := csvfile.ReadPointSet(path, sentinel)
		if err != nil {
			ph.errorf("%s: %v", want.Month, err)
			continue
		}
		if len(got.Points) != len(want.Points) {
			ph.errorf("%s: %d points, want %d", want.Month, len(got.Points), len(want.Points))
			continue
		}
		for i := range want.Points {
			g, w := got.Points[i], want.Points[i]
			if g.Coordinate != w.Coordinate || !sameReading(g.Value, w.Value) {
				ph.errorf("%s row %d: got (%g, %g, %s), want (%g, %g, %s)", want.Month, i,
					g.Lon, g.Lat, sentinel.Format(g.Value), w.Lon, w.Lat, sentinel.Format(w.Value))
			}
		}
	}
	return ph
}

// validateRasters checks each grid exists when its month has data, shares
// one geometry with the other months, and stays within the range of the
// month's observed values.
func validateRasters(monthFiles []string, dir string, sentinel domain.Sentinel) *phase {
	ph := &phase{name: "Rasters consistent with month files"}

	var first *domain.Grid
	for _, f := range monthFiles {
		ps, _, err := csvfile.ReadPointSet(f, sentinel)
		if err != nil {
			ph.errorf("%s: %v", f, err)
			continue
		}
		path := filepath.Join(dir, ps.Month.Stem()+asciigrid.Extension)
		valid := ps.Valid()
		if len(valid) == 0 {
			if _, err := os.Stat(path); err == nil {
				ph.errorf("%s: raster written for a month without observations", ps.Month)
			}
			continue
		}

		g, err := asciigrid.Read(path)
		if err != nil {
			ph.errorf("%s: %v", ps.Month, err)
			continue
		}
		if first == nil {
			first = &g
		} else if g.Cols != first.Cols || g.Rows != first.Rows || math.Abs(g.CellSize-first.CellSize) > tolerance {
			ph.errorf("%s: grid %dx%d@%g differs from %dx%d@%g", ps.Month,
				g.Cols, g.Rows, g.CellSize, first.Cols, first.Rows, first.CellSize)
		}

		vals := g.Values()
		if len(vals) == 0 {
			ph.errorf("%s: raster has no data", ps.Month)
			continue
		}
		observed := make([]float64, len(valid))
		for i, p := range valid {
			observed[i] = p.Value.Value
		}
		lo, hi := floats.Min(observed), floats.Max(observed)
		if floats.Min(vals) < lo-tolerance || floats.Max(vals) > hi+tolerance {
			ph.errorf("%s: raster range [%g, %g] outside observed [%g, %g]",
				ps.Month, floats.Min(vals), floats.Max(vals), lo, hi)
		}
	}
	return ph
}

// validateLegends checks each legend's classes ascend and cover its raster.
func validateLegends(rasterDir, legendDir string) *phase {
	ph := &phase{name: "Legends cover their rasters"}

	grids, err := csvfile.List(rasterDir, "rain_*"+asciigrid.Extension)
	if err != nil {
		ph.errorf("list rasters: %v", err)
		return ph
	}
	for _, f := range grids {
		stem := csvfile.Stem(f)
		lg, err := legend.Read(legend.Path(legendDir, stem))
		if err != nil {
			ph.errorf("%s: %v", stem, err)
			continue
		}
		if len(lg.Classes) == 0 {
			ph.errorf("%s: legend has no classes", stem)
			continue
		}
		for i := 1; i < len(lg.Classes); i++ {
			if lg.Classes[i].UpperBound < lg.Classes[i-1].UpperBound {
				ph.errorf("%s: class %d bound %g below previous %g", stem, i,
					lg.Classes[i].UpperBound, lg.Classes[i-1].UpperBound)
			}
		}
		if last := lg.Classes[len(lg.Classes)-1].UpperBound; last < lg.Max-tolerance {
			ph.errorf("%s: last class bound %g below maximum %g", stem, last, lg.Max)
		}
	}
	return ph
}

func sameReading(a, b domain.Reading) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || math.Abs(a.Value-b.Value) <= tolerance
}
