// Package labelprop detects communities by asynchronous label propagation.
// Visiting order and tie-breaking are random, so repeated runs on the same
// graph may disagree; that variation is what versatility measures.
package labelprop

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// DefaultMaxIterations bounds the sweeps over all nodes of one run.
const DefaultMaxIterations = 100

// Detector runs label propagation on adjacency matrices. It is safe for
// concurrent use; each call draws its own random stream.
type Detector struct {
	maxIterations int
	seed          uint64
	calls         atomic.Uint64
}

// NewDetector creates a detector. maxIterations <= 0 uses DefaultMaxIterations.
func NewDetector(maxIterations int, seed uint64) *Detector {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Detector{maxIterations: maxIterations, seed: seed}
}

// Detect labels every node of adj. Edge weights are symmetrised as
// (A + Aᵀ)/2; self-loops are ignored.
func (d *Detector) Detect(ctx context.Context, adj mat.Matrix) ([]int, error) {
	n, c := adj.Dims()
	if n != c {
		return nil, fmt.Errorf("adjacency matrix is %dx%d, not square", n, c)
	}

	// Neighbor lists with symmetrised weights
	neighbors := make([][]int, n)
	weights := make([][]float64, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := (adj.At(i, j) + adj.At(j, i)) / 2
			if math.IsNaN(w) || w < 0 {
				return nil, fmt.Errorf("invalid weight %v between nodes %d and %d", w, i, j)
			}
			if w == 0 {
				continue
			}
			neighbors[i] = append(neighbors[i], j)
			weights[i] = append(weights[i], w)
			neighbors[j] = append(neighbors[j], i)
			weights[j] = append(weights[j], w)
		}
	}

	rng := rand.New(rand.NewPCG(d.seed, d.calls.Add(1)))

	// Initialize: each node in its own community
	labels := make([]int, n)
	order := make([]int, n)
	for i := range labels {
		labels[i] = i
		order[i] = i
	}

	labelWeight := make(map[int]float64)
	best := make([]int, 0)

	for iter := 0; iter < d.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, node := range order {
			if len(neighbors[node]) == 0 {
				continue
			}

			clear(labelWeight)
			for k, neighbor := range neighbors[node] {
				labelWeight[labels[neighbor]] += weights[node][k]
			}

			// Find the heaviest labels; ties are broken at random
			maxWeight := 0.0
			best = best[:0]
			for label, w := range labelWeight {
				switch {
				case w > maxWeight:
					maxWeight = w
					best = append(best[:0], label)
				case w == maxWeight:
					best = append(best, label)
				}
			}

			// Keep the current label when it is among the heaviest
			current := labels[node]
			keep := false
			for _, label := range best {
				if label == current {
					keep = true
					break
				}
			}
			if keep {
				continue
			}

			slices.Sort(best) // map order is not reproducible
			labels[node] = best[rng.IntN(len(best))]
			changed = true
		}

		if !changed {
			break // Converged
		}
	}

	return labels, nil
}
