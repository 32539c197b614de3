package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/config"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/couchcryptid/rain-grid-etl/internal/observability"
)

// Runner executes the configured stages of one batch, in order, one file at
// a time.
type Runner struct {
	cfg        *config.Config
	sentinel   domain.Sentinel
	rasterizer domain.Rasterizer
	locator    domain.Locator
	publishers []Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready   atomic.Bool
	mu      sync.Mutex
	summary *domain.Summary

	// publish retry policy
	publishAttempts int
	initialBackoff  time.Duration
	maxBackoff      time.Duration
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLocator resolves stations that have a name but no coordinates.
func WithLocator(l domain.Locator) Option {
	return func(r *Runner) { r.locator = l }
}

// WithPublishers hands every produced raster to each publisher.
func WithPublishers(p ...Publisher) Option {
	return func(r *Runner) { r.publishers = append(r.publishers, p...) }
}

// WithRasterizer overrides the strategy chosen from the config.
func WithRasterizer(rz domain.Rasterizer) Option {
	return func(r *Runner) { r.rasterizer = rz }
}

// New creates a Runner for cfg.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:             cfg,
		sentinel:        domain.NewSentinel(cfg.MissingSentinel),
		logger:          logger,
		metrics:         metrics,
		publishAttempts: 3,
		initialBackoff:  200 * time.Millisecond,
		maxBackoff:      5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rasterizer == nil {
		rz, err := NewRasterizer(cfg)
		if err != nil {
			return nil, err
		}
		r.rasterizer = rz
	}
	return r, nil
}

// NewRasterizer returns the strategy named by cfg.Strategy.
func NewRasterizer(cfg *config.Config) (domain.Rasterizer, error) {
	switch cfg.Strategy {
	case "feature":
		return domain.FeatureToRaster{CellSize: cfg.CellSize}, nil
	case "idw":
		return domain.IDW{
			CellSize:     cfg.CellSize,
			Power:        cfg.IDWPower,
			SearchRadius: cfg.IDWSearchRadius,
			MaxNeighbors: cfg.IDWMaxNeighbors,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

// CheckReadiness returns nil once the batch has produced at least one output.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("batch has not produced any output yet")
	}
	return nil
}

// Snapshot returns a copy of the current run summary.
func (r *Runner) Snapshot() domain.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return domain.Summary{}
	}
	s := *r.summary
	s.Results = slices.Clone(s.Results)
	return s
}

type stage struct {
	name domain.Stage
	run  func(ctx context.Context) error
}

// Run executes every configured stage and returns the run summary. A stage
// error stops the stages after it and is recorded in Summary.Err; unit
// failures inside a stage never do.
func (r *Runner) Run(ctx context.Context) domain.Summary {
	r.mu.Lock()
	r.summary = domain.NewSummary()
	runID := r.summary.RunID
	r.mu.Unlock()

	r.logger.Info("batch started",
		"run_id", runID,
		"stage", r.cfg.Stage,
		"strategy", r.rasterizer.Name(),
	)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	stages := []stage{
		{domain.StageAggregate, r.aggregate},
		{domain.StageSplit, r.split},
		{domain.StageRasterize, func(ctx context.Context) error { return r.rasterize(ctx, runID) }},
		{domain.StageStyle, r.style},
	}

	var err error
	for _, st := range stages {
		if !r.cfg.Runs(string(st.name)) {
			continue
		}
		// Under "all", legends are written inline by the rasterize stage.
		if st.name == domain.StageStyle && r.cfg.Stage != string(domain.StageStyle) {
			continue
		}
		if err = ctx.Err(); err != nil {
			break
		}
		start := time.Now()
		err = st.run(ctx)
		r.metrics.StageDuration.WithLabelValues(string(st.name)).Observe(time.Since(start).Seconds())
		if err != nil {
			err = fmt.Errorf("%s: %w", st.name, err)
			r.logger.Error("stage failed", "stage", st.name, "error", err)
			break
		}
	}

	r.mu.Lock()
	r.summary.Finish(err)
	summary := *r.summary
	summary.Results = slices.Clone(summary.Results)
	r.mu.Unlock()

	r.logSummary(summary)
	return summary
}

// record adds unit results to the summary and logs the unsuccessful ones.
func (r *Runner) record(results ...domain.UnitResult) {
	r.mu.Lock()
	r.summary.Add(results...)
	r.mu.Unlock()

	for _, res := range results {
		r.metrics.UnitsProcessed.WithLabelValues(string(res.Stage), string(res.Status)).Inc()
		switch res.Status {
		case domain.StatusSucceeded:
			r.ready.Store(true)
		case domain.StatusSkipped:
			r.logger.Warn("unit skipped", "stage", res.Stage, "unit", res.Unit, "error", res.Err)
		case domain.StatusFailed:
			r.logger.Error("unit failed", "stage", res.Stage, "unit", res.Unit, "error", res.Err)
		}
	}
}

func (r *Runner) logSummary(s domain.Summary) {
	attrs := []any{"run_id", s.RunID, "duration", s.FinishedAt.Sub(s.StartedAt)}
	for _, st := range []domain.Stage{domain.StageAggregate, domain.StageSplit, domain.StageRasterize, domain.StageStyle} {
		attrs = append(attrs, string(st), fmt.Sprintf("%d ok/%d skipped/%d failed",
			s.Count(st, domain.StatusSucceeded),
			s.Count(st, domain.StatusSkipped),
			s.Count(st, domain.StatusFailed),
		))
	}
	if s.Err != nil {
		r.logger.Error("batch finished with error", append(attrs, "error", s.Err)...)
		return
	}
	r.logger.Info("batch finished", attrs...)
}
