package versatility

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Detector assigns every node of an adjacency matrix a community label.
// Only equality between labels is meaningful. Implementations are called
// from several goroutines at once when estimation runs in parallel.
type Detector interface {
	Detect(ctx context.Context, adj mat.Matrix) ([]int, error)
}

// ParameterizedDetector is a detector driven by a resolution parameter.
type ParameterizedDetector interface {
	DetectWithParameter(ctx context.Context, adj mat.Matrix, parameter float64) ([]int, error)
}

// DefaultParameters is implemented by parameterized detectors that know
// sensible resolution ranges. Sweeps without explicit parameters use them.
type DefaultParameters interface {
	DefaultMeanParameters() []float64
	DefaultCurveParameters() []float64
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(ctx context.Context, adj mat.Matrix) ([]int, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, adj mat.Matrix) ([]int, error) {
	return f(ctx, adj)
}

// ParameterizedDetectorFunc adapts a plain function to ParameterizedDetector.
type ParameterizedDetectorFunc func(ctx context.Context, adj mat.Matrix, parameter float64) ([]int, error)

// DetectWithParameter calls f.
func (f ParameterizedDetectorFunc) DetectWithParameter(ctx context.Context, adj mat.Matrix, parameter float64) ([]int, error) {
	return f(ctx, adj, parameter)
}

// WithParameter binds a parameter to d, giving a plain Detector.
func WithParameter(d ParameterizedDetector, parameter float64) Detector {
	return boundDetector{detector: d, parameter: parameter}
}

type boundDetector struct {
	detector  ParameterizedDetector
	parameter float64
}

func (b boundDetector) Detect(ctx context.Context, adj mat.Matrix) ([]int, error) {
	return b.detector.DetectWithParameter(ctx, adj, b.parameter)
}
