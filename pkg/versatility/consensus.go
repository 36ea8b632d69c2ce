package versatility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Consensus estimates the consensus matrix of detector on adj: entry (i,j)
// is the fraction of iterations in which nodes i and j got the same label.
// The result is symmetric with an exact diagonal of ones.
//
// With parallelism > 1 each of the parallelism workers runs
// ceil(iterations/parallelism) detections, so slightly more than iterations
// runs may happen. Workers normalise their own counts and the result is the
// mean of the worker matrices; chunks are equal, so this is also the plain
// fraction over all runs made.
//
// Arguments are validated before the detector is first called. A detector
// error or a label vector of the wrong length aborts the whole estimation.
func (e *Engine) Consensus(ctx context.Context, adj mat.Matrix, detector Detector, iterations, parallelism int) (*mat.SymDense, error) {
	n, err := validateAdjacency(adj)
	if err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, fmt.Errorf("%w: detector is nil", ErrMissingConfiguration)
	}
	if err := e.validateRun(iterations, parallelism); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := e.logger.With().Str("run_id", runID).Int("nodes", n).Logger()
	start := time.Now()

	mode := "sequential"
	var consensus *mat.SymDense
	if parallelism == 1 {
		logger.Debug().Int("iterations", iterations).Msg("Starting consensus estimation")
		consensus, err = e.accumulate(ctx, adj, n, detector, iterations)
	} else {
		mode = "parallel"
		chunk := (iterations + parallelism - 1) / parallelism
		logger.Debug().
			Int("iterations", iterations).
			Int("workers", parallelism).
			Int("chunk", chunk).
			Msg("Starting parallel consensus estimation")
		consensus, err = e.accumulateParallel(ctx, adj, n, detector, chunk, parallelism)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Consensus estimation failed")
		return nil, err
	}

	elapsed := time.Since(start)
	e.metrics.observeEstimation(mode, elapsed)
	logger.Debug().
		Str("mode", mode).
		Dur("elapsed", elapsed).
		Msg("Consensus estimation completed")

	return consensus, nil
}

// accumulate runs detector iterations times and returns the normalised co-assignment counts.
func (e *Engine) accumulate(ctx context.Context, adj mat.Matrix, n int, detector Detector, iterations int) (*mat.SymDense, error) {
	counts := mat.NewSymDense(n, nil)
	raw := counts.RawSymmetric()
	groups := make(map[int][]int)

	for it := 0; it < iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		labels, err := detector.Detect(ctx, adj)
		if err == nil && len(labels) != n {
			err = fmt.Errorf("detector returned %d labels for %d nodes", len(labels), n)
		}
		e.metrics.observeRun(err)
		if err != nil {
			return nil, fmt.Errorf("detection run %d: %w", it, err)
		}

		clear(groups)
		for node, label := range labels {
			groups[label] = append(groups[label], node)
		}

		// Members are in ascending order, so (a, b) with a <= b stays in the upper triangle
		for _, members := range groups {
			for x, a := range members {
				row := raw.Data[a*raw.Stride:]
				for _, b := range members[x:] {
					row[b]++
				}
			}
		}
	}

	divide(raw.Data, raw.Stride, n, float64(iterations))
	return counts, nil
}

// accumulateParallel runs workers independent accumulations of chunk runs each and averages them.
func (e *Engine) accumulateParallel(ctx context.Context, adj mat.Matrix, n int, detector Detector, chunk, workers int) (*mat.SymDense, error) {
	partials := make([]*mat.SymDense, workers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			partial, err := e.accumulate(gctx, adj, n, detector, chunk)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			partials[w] = partial
			e.logger.Trace().Int("worker", w).Msg("Worker finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	consensus := mat.NewSymDense(n, nil)
	for _, partial := range partials {
		consensus.AddSym(consensus, partial)
	}
	raw := consensus.RawSymmetric()
	divide(raw.Data, raw.Stride, n, float64(workers))
	return consensus, nil
}

// divide divides the upper triangle of a row-major n×n buffer by d in place.
// Division rather than scaling by 1/d keeps count d mapping to exactly 1.
func divide(data []float64, stride, n int, d float64) {
	for i := 0; i < n; i++ {
		row := data[i*stride:]
		for j := i; j < n; j++ {
			row[j] /= d
		}
	}
}
