package main

import (
	"github.com/spf13/cobra"

	"github.com/gilchrisn/versatility/pkg/output"
)

func newNodalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "nodal <edgelist>",
		Short: "Versatility of every node at one resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logMetrics()

			graph, err := loadGraph(s, args[0])
			if err != nil {
				return err
			}
			detector, err := s.nodalDetector()
			if err != nil {
				return err
			}

			result, err := s.engine.Nodal(cmd.Context(), graph.Adjacency, detector,
				s.iterations(s.config.Iterations()), s.workers())
			if err != nil {
				return err
			}
			s.logger.Info().Float64("mean_versatility", result.Mean).Msg("Nodal versatility computed")

			w, closeOut, err := output.Create(opts.out)
			if err != nil {
				return err
			}
			if err := output.WriteNodalCSV(w, result.Versatility, nodeNamer(graph.Parser.NormalizedToOriginal)); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}
}

func newMeanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mean <edgelist>",
		Short: "Mean versatility of every node over a resolution range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logMetrics()

			graph, err := loadGraph(s, args[0])
			if err != nil {
				return err
			}
			sweep, err := s.sweep()
			if err != nil {
				return err
			}

			result, err := s.engine.SweepMean(cmd.Context(), graph.Adjacency, sweep)
			if err != nil {
				return err
			}
			s.logger.Info().Float64("graph_mean", result.GraphMean).Msg("Mean versatility computed")

			w, closeOut, err := output.Create(opts.out)
			if err != nil {
				return err
			}
			if err := output.WriteSweepJSON(w, result, nodeNamer(graph.Parser.NormalizedToOriginal)); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}
}

func newCurveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "curve <edgelist>",
		Short: "Mean versatility of the graph at each resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			defer s.logMetrics()

			graph, err := loadGraph(s, args[0])
			if err != nil {
				return err
			}
			sweep, err := s.sweep()
			if err != nil {
				return err
			}

			curve, err := s.engine.SweepCurve(cmd.Context(), graph.Adjacency, sweep)
			if err != nil {
				return err
			}

			w, closeOut, err := output.Create(opts.out)
			if err != nil {
				return err
			}
			if err := output.WriteCurveCSV(w, curve); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}
}

func nodeNamer(ids []string) output.NodeNamer {
	return func(i int) string { return ids[i] }
}
