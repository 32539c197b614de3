package pipeline

import (
	"context"
	"path/filepath"

	"github.com/couchcryptid/rain-grid-etl/internal/adapter/asciigrid"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rain-grid-etl/internal/adapter/legend"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// aggregate reads every daily file in the input directory and writes the
// monthly table. Unreadable files are skipped.
func (r *Runner) aggregate(ctx context.Context) error {
	files, err := csvfile.List(r.cfg.InputDir, r.cfg.InputGlob)
	if err != nil {
		return err
	}
	r.logger.Info("aggregating daily files", "dir", r.cfg.InputDir, "files", len(files))

	var (
		tables []domain.DailyTable
		read   []string
	)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := csvfile.ReadDaily(f, r.sentinel)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageAggregate, f, err))
			continue
		}
		tables = append(tables, t)
		read = append(read, f)
	}

	if n := domain.LocateStations(ctx, tables, r.locator, r.logger); n > 0 {
		r.logger.Info("stations located by name", "count", n)
	}

	monthly, excluded, err := domain.Aggregate(tables, domain.AggregateOptions{ZeroAsMissing: r.cfg.ZeroAsMissing})
	if err != nil {
		return err
	}
	for _, ex := range excluded {
		r.logger.Warn("station excluded", "station", ex.Station, "reason", ex.Reason)
	}
	if err := csvfile.WriteMonthly(r.cfg.AggregateFile, monthly, r.sentinel); err != nil {
		for _, f := range read {
			r.record(domain.Unsuccessful(domain.StageAggregate, f, err))
		}
		return err
	}

	for _, f := range read {
		r.record(domain.Succeeded(domain.StageAggregate, f, r.cfg.AggregateFile))
	}
	r.logger.Info("monthly table written",
		"path", r.cfg.AggregateFile,
		"stations", len(monthly.Stations),
		"months", len(monthly.Columns),
	)
	return nil
}

// split writes one point file per month column of the aggregate table.
func (r *Runner) split(ctx context.Context) error {
	table, err := csvfile.ReadMonthly(r.cfg.AggregateFile, r.sentinel)
	if err != nil {
		return err
	}
	sets, skipped := domain.Split(table)
	r.record(skipped...)

	for _, ps := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := csvfile.WritePointSet(r.cfg.MonthDir, ps, r.sentinel)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageSplit, ps.Month.Label(), err))
			continue
		}
		r.record(domain.Succeeded(domain.StageSplit, ps.Month.Label(), path))
	}
	return nil
}

// rasterize grids every month point file. One workspace brackets the whole
// batch and is released on every exit path. When styling is on, each grid's
// legend is written right after it so published events carry it.
func (r *Runner) rasterize(ctx context.Context, runID string) error {
	files, err := csvfile.ListPointSets(r.cfg.MonthDir)
	if err != nil {
		return err
	}

	ws, err := asciigrid.NewWorkspace(r.cfg.RasterDir, r.cfg.SpatialRef)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			r.logger.Warn("workspace cleanup failed", "dir", ws.Dir(), "error", cerr)
		}
	}()

	styling := r.cfg.Runs(string(domain.StageStyle))
	strategy := r.rasterizer.Name()
	r.logger.Info("rasterizing months", "dir", r.cfg.MonthDir, "files", len(files), "strategy", strategy)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		ps, valueCol, err := csvfile.ReadPointSet(f, r.sentinel)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageRasterize, f, err))
			continue
		}
		if valueCol != csvfile.RainfallColumn {
			r.logger.Info("value column substituted", "file", f, "column", valueCol)
		}

		g, err := r.rasterizer.Rasterize(ctx, ps)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageRasterize, f, err))
			continue
		}
		out, err := ws.Write(ps.Month.Stem(), g)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageRasterize, f, err))
			continue
		}
		r.record(domain.Succeeded(domain.StageRasterize, f, out.Grid))

		stats := g.Stats()
		r.metrics.RastersWritten.WithLabelValues(strategy).Inc()
		r.metrics.CellsInterpolated.Add(float64(stats.Count))

		artifacts := []domain.RasterArtifact{
			{Kind: "grid", Path: out.Grid},
			{Kind: "prj", Path: out.Prj},
		}
		if styling {
			if path, ok := r.styleGrid(out.Grid, ps.Month, g); ok {
				artifacts = append(artifacts, domain.RasterArtifact{Kind: "legend", Path: path})
			}
		}
		r.publish(ctx, domain.NewRasterEvent(runID, ps.Month, strategy, g, artifacts...))
	}
	return nil
}

// style writes a legend for every grid already in the raster directory.
func (r *Runner) style(ctx context.Context) error {
	files, err := csvfile.List(r.cfg.RasterDir, "rain_*"+asciigrid.Extension)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		month, err := domain.ParseStem(csvfile.Stem(f))
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageStyle, f, err))
			continue
		}
		g, err := asciigrid.Read(f)
		if err != nil {
			r.record(domain.Unsuccessful(domain.StageStyle, f, err))
			continue
		}
		r.styleGrid(f, month, g)
	}
	return nil
}

// styleGrid classifies g and writes its legend, recording the outcome.
func (r *Runner) styleGrid(gridPath string, month domain.YearMonth, g domain.Grid) (string, bool) {
	method, err := domain.ParseClassMethod(r.cfg.ClassMethod)
	if err != nil {
		r.record(domain.Unsuccessful(domain.StageStyle, gridPath, err))
		return "", false
	}
	ramp, ok := domain.LookupRamp(r.cfg.ColorRamp)
	if !ok {
		r.logger.Warn("unknown colour ramp, using default", "ramp", r.cfg.ColorRamp, "default", ramp.Name)
	}

	lg, ok := domain.BuildLegend(filepath.Base(gridPath), g, method, r.cfg.BreakCount, ramp, r.sentinel)
	if !ok {
		r.record(domain.Unsuccessful(domain.StageStyle, gridPath, &domain.EmptyPointSetError{Month: month}))
		return "", false
	}
	path := legend.Path(r.cfg.LegendDir, month.Stem())
	if err := legend.Write(path, lg); err != nil {
		r.record(domain.Unsuccessful(domain.StageStyle, gridPath, err))
		return "", false
	}
	r.record(domain.Succeeded(domain.StageStyle, gridPath, path))
	return path, true
}
