package louvain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// Default resolution ranges: gamma 0.4..2.4 for averaging and 0.1..4.0 for curves, both in steps of 0.1.
var (
	defaultMeanParameters  = resolutionRange(4, 24)
	defaultCurveParameters = resolutionRange(1, 40)
)

func resolutionRange(fromTenths, toTenths int) []float64 {
	params := make([]float64, 0, toTenths-fromTenths+1)
	for t := fromTenths; t <= toTenths; t++ {
		params = append(params, float64(t)/10)
	}
	return params
}

// Detector runs Louvain on adjacency matrices. Each call draws a fresh
// random stream, so repeated calls give independent partitions. It is safe
// for concurrent use.
type Detector struct {
	config *Config
	calls  atomic.Uint64
}

// NewDetector creates a detector; a nil config uses NewConfig().
func NewDetector(config *Config) *Detector {
	if config == nil {
		config = NewConfig()
	}
	return &Detector{config: config}
}

// Detect partitions adj using the configured resolution.
func (d *Detector) Detect(ctx context.Context, adj mat.Matrix) ([]int, error) {
	return d.DetectWithParameter(ctx, adj, d.config.Resolution())
}

// DetectWithParameter partitions adj with resolution gamma.
func (d *Detector) DetectWithParameter(ctx context.Context, adj mat.Matrix, gamma float64) ([]int, error) {
	if gamma < 0 {
		return nil, fmt.Errorf("resolution must be non-negative: %f", gamma)
	}

	graph, err := NewGraphFromMatrix(adj)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(d.config.RandomSeed()), d.calls.Add(1)))
	result, err := Run(ctx, graph, d.config, gamma, rng)
	if err != nil {
		return nil, err
	}
	return result.FinalCommunities, nil
}

// DefaultMeanParameters returns the resolutions averaged over when none are given.
func (d *Detector) DefaultMeanParameters() []float64 {
	return append([]float64(nil), defaultMeanParameters...)
}

// DefaultCurveParameters returns the resolutions a versatility curve spans when none are given.
func (d *Detector) DefaultCurveParameters() []float64 {
	return append([]float64(nil), defaultCurveParameters...)
}
