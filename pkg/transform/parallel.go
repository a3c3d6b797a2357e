package transform

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/metricgraph/pkg/metrics"
)

// effectiveWorkers maps the Workers setting to a concurrency limit.
func effectiveWorkers(workers int) int {
	switch {
	case workers < 0:
		return runtime.NumCPU()
	case workers == 0:
		return 1
	default:
		return workers
	}
}

// mapSamples applies fn to every sample with at most workers running at
// once. Output order matches input order. The first error cancels the
// remaining samples and is returned wrapped with its sample index.
func mapSamples[In, Out any](
	ctx context.Context,
	name string,
	r Runner,
	X []In,
	fn func(ctx context.Context, x In) (Out, error),
) ([]Out, error) {
	start := time.Now()
	log := r.log().With(zap.String("transformer", name))

	out := make([]Out, len(X))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(effectiveWorkers(r.Workers))

	for i, x := range X {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			y, err := fn(gctx, x)
			if err != nil {
				return fmt.Errorf("%s: sample %d: %w", name, i, err)
			}
			out[i] = y
			return nil
		})
	}

	err := g.Wait()
	elapsed := time.Since(start)
	metrics.ObserveTransform(name, len(X), elapsed, err)
	if err != nil {
		log.Error("transform failed", zap.Int("samples", len(X)), zap.Error(err))
		return nil, err
	}
	log.Debug("transform done",
		zap.Int("samples", len(X)),
		zap.Int("workers", effectiveWorkers(r.Workers)),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}
