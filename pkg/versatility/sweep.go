package versatility

import (
	"context"
	"fmt"
	"math"

	"github.com/gilchrisn/versatility/pkg/louvain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sweep describes a run over a sequence of resolution parameters.
type Sweep struct {
	Detector    ParameterizedDetector
	Parameters  []float64 // empty: use the detector's DefaultParameters
	Iterations  int       // detections per parameter
	Parallelism int       // workers per consensus estimation
}

// DefaultMeanSweep is the default configuration for SweepMean: Louvain over
// gamma 0.4..2.4 in steps of 0.1, 100 detections per value.
func DefaultMeanSweep() Sweep {
	d := louvain.NewDetector(nil)
	return Sweep{
		Detector:    d,
		Parameters:  d.DefaultMeanParameters(),
		Iterations:  100,
		Parallelism: 1,
	}
}

// DefaultCurveSweep is the default configuration for SweepCurve: Louvain
// over gamma 0.1..4.0 in steps of 0.1, 100 detections per value.
func DefaultCurveSweep() Sweep {
	d := louvain.NewDetector(nil)
	return Sweep{
		Detector:    d,
		Parameters:  d.DefaultCurveParameters(),
		Iterations:  100,
		Parallelism: 1,
	}
}

type sweepKind int

const (
	sweepMean sweepKind = iota
	sweepCurve
)

// parameters resolves the parameter sequence: explicit values first, then
// the detector's declared defaults.
func (s Sweep) parameters(kind sweepKind) ([]float64, error) {
	if s.Detector == nil {
		return nil, fmt.Errorf("%w: sweep has no detector", ErrMissingConfiguration)
	}
	if len(s.Parameters) > 0 {
		return append([]float64(nil), s.Parameters...), nil
	}

	defaults, ok := s.Detector.(DefaultParameters)
	if !ok {
		return nil, fmt.Errorf("%w: no parameters given and detector %T declares no defaults", ErrMissingConfiguration, s.Detector)
	}
	var params []float64
	if kind == sweepMean {
		params = defaults.DefaultMeanParameters()
	} else {
		params = defaults.DefaultCurveParameters()
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: detector %T declares an empty default range", ErrMissingConfiguration, s.Detector)
	}
	return params, nil
}

// SweepResult is the outcome of SweepMean.
type SweepResult struct {
	Parameters   []float64
	Mean         []float64   // per node, averaged over parameters
	PerParameter [][]float64 // PerParameter[k] is the versatility vector for Parameters[k]
	GraphMean    float64     // mean of Mean over nodes
}

// CurvePoint is the mean versatility over nodes at one parameter, with its
// standard error.
type CurvePoint struct {
	Parameter float64 `json:"parameter"`
	Mean      float64 `json:"mean"`
	SEM       float64 `json:"sem"`
}

// SweepMean estimates versatility at every parameter of the sweep and
// averages the per-node vectors. The average does not depend on parameter order.
func (e *Engine) SweepMean(ctx context.Context, adj mat.Matrix, sweep Sweep) (*SweepResult, error) {
	n, params, err := e.prepareSweep(adj, sweep, sweepMean)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		Parameters:   params,
		Mean:         make([]float64, n),
		PerParameter: make([][]float64, len(params)),
	}
	err = e.runSweep(ctx, adj, sweep, params, func(k int, v []float64) {
		result.PerParameter[k] = v
		floats.Add(result.Mean, v)
	})
	if err != nil {
		return nil, err
	}

	floats.Scale(1/float64(len(params)), result.Mean)
	result.GraphMean = stat.Mean(result.Mean, nil)
	return result, nil
}

// SweepCurve estimates versatility at every parameter of the sweep and
// reports, in parameter order, the mean over nodes and its standard error.
// The standard error is 0 for single-node graphs.
func (e *Engine) SweepCurve(ctx context.Context, adj mat.Matrix, sweep Sweep) ([]CurvePoint, error) {
	n, params, err := e.prepareSweep(adj, sweep, sweepCurve)
	if err != nil {
		return nil, err
	}

	curve := make([]CurvePoint, len(params))
	err = e.runSweep(ctx, adj, sweep, params, func(k int, v []float64) {
		mean, std := stat.MeanStdDev(v, nil)
		sem := 0.0
		if n > 1 {
			sem = stat.StdErr(std, float64(n))
		}
		curve[k] = CurvePoint{Parameter: params[k], Mean: mean, SEM: sem}
	})
	if err != nil {
		return nil, err
	}
	return curve, nil
}

func (e *Engine) prepareSweep(adj mat.Matrix, sweep Sweep, kind sweepKind) (int, []float64, error) {
	n, err := validateAdjacency(adj)
	if err != nil {
		return 0, nil, err
	}
	params, err := sweep.parameters(kind)
	if err != nil {
		return 0, nil, err
	}
	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, nil, fmt.Errorf("%w: parameter %v is not finite", ErrInvalidInput, p)
		}
	}
	if err := e.validateRun(sweep.Iterations, sweep.Parallelism); err != nil {
		return 0, nil, err
	}
	return n, params, nil
}

func (e *Engine) runSweep(ctx context.Context, adj mat.Matrix, sweep Sweep, params []float64, collect func(k int, v []float64)) error {
	for k, p := range params {
		consensus, err := e.Consensus(ctx, adj, WithParameter(sweep.Detector, p), sweep.Iterations, sweep.Parallelism)
		if err != nil {
			return fmt.Errorf("parameter %v: %w", p, err)
		}
		v, err := Transform(consensus)
		if err != nil {
			return fmt.Errorf("parameter %v: %w", p, err)
		}
		collect(k, v)
		e.metrics.observeParameter()

		if e.config.EnableProgress() {
			e.logger.Info().
				Float64("parameter", p).
				Int("done", k+1).
				Int("total", len(params)).
				Float64("mean_versatility", stat.Mean(v, nil)).
				Msg("Parameter complete")
		}
	}
	return nil
}
