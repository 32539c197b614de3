package pipeline

import (
	"context"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Publisher announces or ships a finished raster.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event domain.RasterEvent) error
}

// publish hands event to every publisher, retrying each with exponential
// backoff. A publisher that keeps failing is logged and counted; the raster
// on disk stays valid either way.
func (r *Runner) publish(ctx context.Context, event domain.RasterEvent) {
	for _, p := range r.publishers {
		if err := r.publishWithRetry(ctx, p, event); err != nil {
			r.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
			r.logger.Error("publish failed",
				"publisher", p.Name(),
				"event", event.ID,
				"error", err,
			)
			continue
		}
		r.metrics.EventsPublished.WithLabelValues(p.Name()).Inc()
	}
}

func (r *Runner) publishWithRetry(ctx context.Context, p Publisher, event domain.RasterEvent) error {
	backoff := r.initialBackoff
	var err error
	for attempt := 1; attempt <= r.publishAttempts; attempt++ {
		if err = p.Publish(ctx, event); err == nil {
			return nil
		}
		if attempt == r.publishAttempts || ctx.Err() != nil {
			break
		}
		r.logger.Warn("publish attempt failed, retrying",
			"publisher", p.Name(),
			"event", event.ID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, r.maxBackoff)
	}
	return err
}
