package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/versatility/pkg/labelprop"
	"github.com/gilchrisn/versatility/pkg/louvain"
	"github.com/gilchrisn/versatility/pkg/parser"
	"github.com/gilchrisn/versatility/pkg/versatility"
)

// options holds the flags shared by every subcommand
type options struct {
	configFile string
	iterations int
	workers    int
	gamma      float64
	params     string
	detector   string
	seed       int64
	out        string
}

// session is everything a subcommand needs after flags and config are resolved
type session struct {
	opts     *options
	config   *versatility.Config
	louvain  *louvain.Config
	engine   *versatility.Engine
	registry *prometheus.Registry
	logger   zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "versatility",
		Short: "Nodal versatility of community assignments",
		Long: `versatility runs a stochastic community detection method many times on a
graph, builds the consensus matrix of how often each pair of nodes shares a
community, and turns it into a per-node versatility score (0 = always
assigned the same way).

Graphs are read as edge lists: one "from to [weight]" per line, '#' comments.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file")
	flags.IntVar(&opts.iterations, "iterations", 0, "detection runs per estimate (0 = config default)")
	flags.IntVar(&opts.workers, "workers", 0, "parallel workers (0 = config default)")
	flags.Float64Var(&opts.gamma, "gamma", 1.0, "Louvain resolution for nodal runs")
	flags.StringVar(&opts.params, "params", "", "comma separated resolution values for sweeps")
	flags.StringVar(&opts.detector, "detector", "louvain", "community detector: louvain or labelprop")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed (0 = time based)")
	flags.StringVarP(&opts.out, "out", "o", "-", "output file ('-' for stdout)")

	root.AddCommand(newNodalCmd(opts), newMeanCmd(opts), newCurveCmd(opts))
	return root
}

// newSession loads config and builds the engine for one command invocation
func newSession(opts *options) (*session, error) {
	config := versatility.NewConfig()
	lc := louvain.NewConfig()
	if opts.configFile != "" {
		if err := config.LoadFromFile(opts.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := lc.LoadFromFile(opts.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if opts.seed != 0 {
		lc.Set("algorithm.random_seed", opts.seed)
	}

	registry := prometheus.NewRegistry()
	metrics, err := versatility.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	logger := config.CreateLogger()
	return &session{
		opts:     opts,
		config:   config,
		louvain:  lc,
		engine:   versatility.NewEngine(config, versatility.WithLogger(logger), versatility.WithMetrics(metrics)),
		registry: registry,
		logger:   logger,
	}, nil
}

// iterations resolves the --iterations flag against a config default
func (s *session) iterations(fallback int) int {
	if s.opts.iterations > 0 {
		return s.opts.iterations
	}
	return fallback
}

func (s *session) workers() int {
	if !s.config.Parallel() {
		return 1
	}
	if s.opts.workers > 0 {
		return s.opts.workers
	}
	return s.config.NumWorkers()
}

func (s *session) seed() uint64 {
	return uint64(s.louvain.RandomSeed())
}

// nodalDetector returns the detector selected by --detector
func (s *session) nodalDetector() (versatility.Detector, error) {
	switch s.opts.detector {
	case "louvain":
		return versatility.WithParameter(louvain.NewDetector(s.louvain), s.opts.gamma), nil
	case "labelprop":
		return labelprop.NewDetector(0, s.seed()), nil
	default:
		return nil, fmt.Errorf("unknown detector %q", s.opts.detector)
	}
}

// sweep builds a resolution sweep over the Louvain detector
func (s *session) sweep() (versatility.Sweep, error) {
	if s.opts.detector != "louvain" {
		return versatility.Sweep{}, fmt.Errorf("detector %q takes no parameter to sweep", s.opts.detector)
	}

	params, err := parseParams(s.opts.params)
	if err != nil {
		return versatility.Sweep{}, err
	}
	return versatility.Sweep{
		Detector:    louvain.NewDetector(s.louvain),
		Parameters:  params,
		Iterations:  s.iterations(s.config.SweepIterations()),
		Parallelism: s.workers(),
	}, nil
}

// logMetrics reports the run counters at debug level
func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			event := s.logger.Debug().Str("metric", family.GetName())
			switch {
			case m.GetCounter() != nil:
				event = event.Float64("value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				event = event.Uint64("count", m.GetHistogram().GetSampleCount()).
					Float64("sum", m.GetHistogram().GetSampleSum())
			}
			event.Msg("Metric")
		}
	}
}

func loadGraph(s *session, path string) (*parser.ParseResult, error) {
	result, err := parser.NewGraphParser(s.logger).ParseEdgeListFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", path, err)
	}
	s.logger.Info().
		Str("graph", path).
		Int("nodes", result.Parser.NumNodes()).
		Int("edges", len(result.Edges)).
		Msg("Loaded graph")
	return result, nil
}

// parseParams parses a comma separated list; an empty list means detector defaults
func parseParams(list string) ([]float64, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var params []float64
	for _, field := range strings.Split(list, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", field, err)
		}
		params = append(params, p)
	}
	return params, nil
}
