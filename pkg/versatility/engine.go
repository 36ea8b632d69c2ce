// Package versatility estimates nodal versatility: how consistently each
// node of a network is placed in the same community by a (possibly
// stochastic) community detection algorithm.
//
// An Engine runs a Detector repeatedly to build a consensus matrix, whose
// (i,j) entry is the fraction of runs placing nodes i and j together, and
// turns it into one score per node:
//
//	V_i = Σ_j sin(π C_ij) / Σ_j C_ij
//
// Scores near 0 mean the node always lands with the same partners.
// Sweeps repeat this across resolution parameters and average the scores
// or report a per-parameter curve.
package versatility

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Engine runs versatility estimations. It is safe for concurrent use.
type Engine struct {
	config  *Config
	logger  zerolog.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics makes the engine record Prometheus metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine creates an engine; a nil config uses NewConfig().
func NewEngine(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = NewConfig()
	}
	e := &Engine{
		config: config,
		logger: config.CreateLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// validateAdjacency checks the one structural property the engine relies on.
func validateAdjacency(adj mat.Matrix) (int, error) {
	if adj == nil {
		return 0, fmt.Errorf("%w: adjacency matrix is nil", ErrInvalidInput)
	}
	r, c := adj.Dims()
	if r != c {
		return 0, fmt.Errorf("%w: adjacency matrix is %dx%d, not square", ErrInvalidInput, r, c)
	}
	if r == 0 {
		return 0, fmt.Errorf("%w: adjacency matrix is empty", ErrInvalidInput)
	}
	return r, nil
}

func (e *Engine) validateRun(iterations, parallelism int) error {
	if iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, iterations)
	}
	if parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalidInput, parallelism)
	}
	if parallelism > 1 && !e.config.Parallel() {
		return fmt.Errorf("%w: %d workers requested but parallel execution is disabled", ErrUnsupportedConfiguration, parallelism)
	}
	return nil
}
