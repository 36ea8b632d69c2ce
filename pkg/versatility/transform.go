package versatility

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// clampThreshold absorbs floating point residue such as sin(π) ≈ 1.2e-16.
const clampThreshold = 1e-10

// Transform computes the versatility of every node of a consensus matrix:
//
//	V_i = Σ_j sin(π C_ij) / Σ_j C_ij
//
// Row sums are used; since C is symmetric they equal the column sums.
// Values below 1e-10 are set to exactly 0, and so is the versatility of a
// node whose consensus row sums to 0. Entries must lie in [0,1].
func Transform(consensus mat.Symmetric) ([]float64, error) {
	if consensus == nil {
		return nil, fmt.Errorf("%w: consensus matrix is nil", ErrInvalidInput)
	}
	n := consensus.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("%w: consensus matrix is empty", ErrInvalidInput)
	}

	versatility := make([]float64, n)
	for i := 0; i < n; i++ {
		var num, den float64
		for j := 0; j < n; j++ {
			c := consensus.At(i, j)
			if !(c >= 0 && c <= 1) {
				return nil, fmt.Errorf("%w: consensus entry (%d,%d) = %v outside [0,1]", ErrInvalidInput, i, j, c)
			}
			num += math.Sin(math.Pi * c)
			den += c
		}

		if den == 0 {
			continue
		}
		if v := num / den; v >= clampThreshold {
			versatility[i] = v
		}
	}

	return versatility, nil
}
