package versatility

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/mat"
)

// TestConsensusInvariants checks, for random detectors, sizes and iteration
// counts, that consensus matrices are symmetric with a unit diagonal, that
// every entry is a count over the iterations, and that versatility is finite
// and non-negative.
func TestConsensusInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	engine := quietEngine(t, nil)

	properties.Property("consensus is symmetric with a unit diagonal", prop.ForAll(
		func(n, iterations, communities int, seed uint64, parallelism int) bool {
			c, err := engine.Consensus(context.Background(), mat.NewSymDense(n, nil),
				randomDetector(seed, communities), iterations, parallelism)
			if err != nil {
				return false
			}

			effective := iterations
			if parallelism > 1 {
				effective = parallelism * ((iterations + parallelism - 1) / parallelism)
			}

			for i := 0; i < n; i++ {
				if c.At(i, i) != 1 {
					return false
				}
				for j := 0; j < n; j++ {
					x := c.At(i, j)
					if x != c.At(j, i) || x < 0 || x > 1 {
						return false
					}
					count := x * float64(effective)
					if math.Abs(count-math.Round(count)) > 1e-9 {
						return false
					}
				}
			}

			v, err := Transform(c)
			if err != nil {
				return false
			}
			for _, x := range v {
				if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 9),
		gen.IntRange(1, 30),
		gen.IntRange(1, 4),
		gen.UInt64(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}
