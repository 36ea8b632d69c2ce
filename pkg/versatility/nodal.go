package versatility

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NodalResult is the outcome of one versatility estimation.
type NodalResult struct {
	Consensus   *mat.SymDense
	Versatility []float64 // one score per node, in adjacency order
	Mean        float64   // mean over nodes
}

// Nodal estimates the consensus matrix of detector on adj and transforms it
// into per-node versatility.
func (e *Engine) Nodal(ctx context.Context, adj mat.Matrix, detector Detector, iterations, parallelism int) (*NodalResult, error) {
	consensus, err := e.Consensus(ctx, adj, detector, iterations, parallelism)
	if err != nil {
		return nil, err
	}

	versatility, err := Transform(consensus)
	if err != nil {
		return nil, err
	}

	return &NodalResult{
		Consensus:   consensus,
		Versatility: versatility,
		Mean:        stat.Mean(versatility, nil),
	}, nil
}
