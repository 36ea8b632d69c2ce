package versatility

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// thresholdDetector groups node i with node 0 when i < parameter and leaves
// it alone otherwise, so the partition is a deterministic function of the parameter.
type thresholdDetector struct {
	mu   sync.Mutex
	seen []float64
}

func (d *thresholdDetector) DetectWithParameter(_ context.Context, adj mat.Matrix, parameter float64) ([]int, error) {
	d.mu.Lock()
	d.seen = append(d.seen, parameter)
	d.mu.Unlock()

	n, _ := adj.Dims()
	labels := make([]int, n)
	for i := range labels {
		if float64(i) >= parameter {
			labels[i] = i + 1
		}
	}
	return labels, nil
}

func (d *thresholdDetector) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// defaultedDetector is a thresholdDetector that declares default ranges.
type defaultedDetector struct {
	thresholdDetector
}

func (d *defaultedDetector) DefaultMeanParameters() []float64  { return []float64{1, 2} }
func (d *defaultedDetector) DefaultCurveParameters() []float64 { return []float64{3, 1, 2} }

// flipDetector alternates between one community and two on every call,
// independently of the parameter.
func flipDetector() ParameterizedDetector {
	var mu sync.Mutex
	flip := false
	return ParameterizedDetectorFunc(func(_ context.Context, adj mat.Matrix, _ float64) ([]int, error) {
		mu.Lock()
		flip = !flip
		f := flip
		mu.Unlock()

		n, _ := adj.Dims()
		labels := make([]int, n)
		if f {
			for i := n / 2; i < n; i++ {
				labels[i] = 1
			}
		}
		return labels, nil
	})
}

func TestSweepMean(t *testing.T) {
	engine := quietEngine(t, nil)

	t.Run("AveragesPerParameterVectors", func(t *testing.T) {
		sweep := Sweep{Detector: flipDetector(), Parameters: []float64{0.5, 1, 1.5}, Iterations: 10, Parallelism: 1}
		result, err := engine.SweepMean(context.Background(), ring(4), sweep)
		require.NoError(t, err)

		// Every node: C = [1, 1, 1/2, 1/2] in some order -> (sin π + 2) / 3
		want := (math.Sin(math.Pi) + 2) / 3
		require.Len(t, result.PerParameter, 3)
		for _, v := range result.PerParameter {
			for _, x := range v {
				assert.InDelta(t, want, x, 1e-12)
			}
		}
		for _, x := range result.Mean {
			assert.InDelta(t, want, x, 1e-12)
		}
		assert.InDelta(t, want, result.GraphMean, 1e-12)
		assert.Equal(t, []float64{0.5, 1, 1.5}, result.Parameters)
	})

	t.Run("OrderIndependent", func(t *testing.T) {
		forward, err := engine.SweepMean(context.Background(), ring(5),
			Sweep{Detector: &thresholdDetector{}, Parameters: []float64{1, 2, 3, 4}, Iterations: 3, Parallelism: 1})
		require.NoError(t, err)
		backward, err := engine.SweepMean(context.Background(), ring(5),
			Sweep{Detector: &thresholdDetector{}, Parameters: []float64{4, 3, 2, 1}, Iterations: 3, Parallelism: 1})
		require.NoError(t, err)

		assert.InDeltaSlice(t, forward.Mean, backward.Mean, 1e-12)
		assert.Equal(t, forward.PerParameter[0], backward.PerParameter[3])
	})

	t.Run("Parallel", func(t *testing.T) {
		sweep := Sweep{Detector: &thresholdDetector{}, Parameters: []float64{1, 3}, Iterations: 8, Parallelism: 4}
		result, err := engine.SweepMean(context.Background(), ring(5), sweep)
		require.NoError(t, err)
		assert.Len(t, result.Mean, 5)
	})
}

func TestSweepCurve(t *testing.T) {
	engine := quietEngine(t, nil)

	detector := &thresholdDetector{}
	params := []float64{2.5, 0.5, 1.5}
	curve, err := engine.SweepCurve(context.Background(), ring(4),
		Sweep{Detector: detector, Parameters: params, Iterations: 2, Parallelism: 1})
	require.NoError(t, err)
	require.Len(t, curve, 3)

	for k, p := range params {
		assert.Equal(t, p, curve[k].Parameter)
	}

	// A deterministic partition is perfectly stable at every parameter
	for _, point := range curve {
		assert.Equal(t, 0.0, point.Mean)
		assert.Equal(t, 0.0, point.SEM)
	}

	t.Run("StandardError", func(t *testing.T) {
		curve, err := engine.SweepCurve(context.Background(), ring(4),
			Sweep{Detector: flipDetector(), Parameters: []float64{1}, Iterations: 10, Parallelism: 1})
		require.NoError(t, err)
		want := (math.Sin(math.Pi) + 2) / 3
		assert.InDelta(t, want, curve[0].Mean, 1e-12)
		assert.InDelta(t, 0, curve[0].SEM, 1e-12)
	})
}

func TestSweepParameterResolution(t *testing.T) {
	engine := quietEngine(t, nil)

	t.Run("MissingConfiguration", func(t *testing.T) {
		detector := &thresholdDetector{}
		sweep := Sweep{Detector: detector, Iterations: 5, Parallelism: 1}

		_, err := engine.SweepMean(context.Background(), ring(4), sweep)
		require.ErrorIs(t, err, ErrMissingConfiguration)
		_, err = engine.SweepCurve(context.Background(), ring(4), sweep)
		require.ErrorIs(t, err, ErrMissingConfiguration)
		assert.Zero(t, detector.calls())
	})

	t.Run("NoDetector", func(t *testing.T) {
		_, err := engine.SweepMean(context.Background(), ring(4), Sweep{Parameters: []float64{1}, Iterations: 5, Parallelism: 1})
		require.ErrorIs(t, err, ErrMissingConfiguration)
	})

	t.Run("DetectorDefaults", func(t *testing.T) {
		detector := &defaultedDetector{}
		sweep := Sweep{Detector: detector, Iterations: 1, Parallelism: 1}

		mean, err := engine.SweepMean(context.Background(), ring(4), sweep)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, mean.Parameters)

		curve, err := engine.SweepCurve(context.Background(), ring(4), sweep)
		require.NoError(t, err)
		require.Len(t, curve, 3)
		assert.Equal(t, 3.0, curve[0].Parameter)
		assert.Equal(t, []float64{1, 2, 3, 1, 2}, detector.seen)
	})

	t.Run("ExplicitOverridesDefaults", func(t *testing.T) {
		detector := &defaultedDetector{}
		result, err := engine.SweepMean(context.Background(), ring(4),
			Sweep{Detector: detector, Parameters: []float64{7}, Iterations: 1, Parallelism: 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{7}, result.Parameters)
	})

	t.Run("DefaultSweeps", func(t *testing.T) {
		mean := DefaultMeanSweep()
		assert.Len(t, mean.Parameters, 21)
		assert.Equal(t, 100, mean.Iterations)
		assert.InDelta(t, 0.4, mean.Parameters[0], 1e-12)
		assert.InDelta(t, 2.4, mean.Parameters[20], 1e-12)

		curve := DefaultCurveSweep()
		assert.Len(t, curve.Parameters, 40)
		assert.InDelta(t, 0.1, curve.Parameters[0], 1e-12)
		assert.InDelta(t, 4.0, curve.Parameters[39], 1e-12)

		_, ok := mean.Detector.(DefaultParameters)
		assert.True(t, ok, "default detector must declare its ranges")
	})
}

func TestSweepInvalidInput(t *testing.T) {
	engine := quietEngine(t, nil)
	detector := &thresholdDetector{}

	_, err := engine.SweepMean(context.Background(), mat.NewDense(2, 3, nil),
		Sweep{Detector: detector, Parameters: []float64{1}, Iterations: 5, Parallelism: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.SweepCurve(context.Background(), mat.NewDense(3, 2, nil),
		Sweep{Detector: detector, Parameters: []float64{1}, Iterations: 5, Parallelism: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.SweepMean(context.Background(), ring(3),
		Sweep{Detector: detector, Parameters: []float64{math.NaN()}, Iterations: 5, Parallelism: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.SweepMean(context.Background(), ring(3),
		Sweep{Detector: detector, Parameters: []float64{1}, Iterations: 0, Parallelism: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, detector.calls())
}

func TestSweepMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	config := NewConfig()
	config.Set("logging.level", "disabled")
	engine := NewEngine(config, WithMetrics(metrics))

	_, err = engine.SweepMean(context.Background(), ring(4),
		Sweep{Detector: &thresholdDetector{}, Parameters: []float64{1, 2, 3}, Iterations: 4, Parallelism: 2})
	require.NoError(t, err)

	assert.Equal(t, 12.0, testutil.ToFloat64(metrics.DetectorRuns))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DetectorFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ParametersSwept))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.EstimationDuration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
