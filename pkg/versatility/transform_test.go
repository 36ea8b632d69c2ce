package versatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTransform(t *testing.T) {
	t.Run("KnownValues", func(t *testing.T) {
		c := mat.NewSymDense(3, []float64{
			1, 0.5, 0,
			0.5, 1, 0,
			0, 0, 1,
		})
		v, err := Transform(c)
		require.NoError(t, err)

		// (sin(π) + sin(π/2)) / 1.5 for the paired nodes, sin(π)/1 clamped for the loner
		assert.InDelta(t, 1/1.5, v[0], 1e-12)
		assert.InDelta(t, 1/1.5, v[1], 1e-12)
		assert.Equal(t, 0.0, v[2])
	})

	t.Run("ClampsResidue", func(t *testing.T) {
		c := mat.NewSymDense(2, []float64{1, 1, 1, 1})
		v, err := Transform(c)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, v)
	})

	t.Run("ZeroRowSum", func(t *testing.T) {
		c := mat.NewSymDense(2, []float64{0, 0, 0, 1})
		v, err := Transform(c)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, v)
		assert.False(t, math.IsNaN(v[0]))
	})

	t.Run("Idempotent", func(t *testing.T) {
		c := mat.NewSymDense(3, []float64{
			1, 0.3, 0.7,
			0.3, 1, 0.2,
			0.7, 0.2, 1,
		})
		first, err := Transform(c)
		require.NoError(t, err)
		second, err := Transform(c)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 0.3, c.At(0, 1), "input must not be modified")
	})

	t.Run("OutOfRange", func(t *testing.T) {
		for _, bad := range []float64{-0.1, 1.5, math.NaN()} {
			c := mat.NewSymDense(2, []float64{1, bad, bad, 1})
			_, err := Transform(c)
			require.ErrorIs(t, err, ErrInvalidInput, "entry %v", bad)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := Transform(nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
