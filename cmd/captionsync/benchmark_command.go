package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/history"
	"captionsync/internal/report"
	"captionsync/internal/services"
)

const (
	defaultBenchmarkRuns    = 3
	defaultBenchmarkEpsilon = 0.5
)

func newBenchmarkCommand(ctx *commandContext) *cobra.Command {
	var runs int
	var epsilon float64
	var replay bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "benchmark <video|observations.json>",
		Short: "Re-rate one input several times and fail when ratings drift apart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 2 {
				return services.Wrap(services.ErrValidation, "benchmark", "flags", "--runs must be at least 2", nil)
			}
			if epsilon < 0 {
				return services.Wrap(services.ErrValidation, "benchmark", "flags", "--epsilon must be non-negative", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input := args[0]
			fromObservations := strings.HasSuffix(input, ".json")
			if !fromObservations {
				if err := requireSystemDeps(cmd.Context(), cfg); err != nil {
					return err
				}
			}

			r, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			results := make([]history.Run, 0, runs)
			for i := 0; i < runs; i++ {
				var res rated
				var source history.Source
				switch {
				case fromObservations:
					res, err = r.scoreObservations(cmd.Context(), input)
					source = history.SourceObservations
				case replay && i > 0:
					res, err = r.scoreObservations(cmd.Context(), report.ObservationsPath(cfg.Paths.ReportDir, input))
					source = history.SourceObservations
				default:
					res, err = r.rateVideo(cmd.Context(), input, replay)
					source = history.SourceVideo
				}
				if err != nil {
					return fmt.Errorf("benchmark run %d: %w", i+1, err)
				}
				results = append(results, history.NewRun(res.Input, source, res.Output))
			}

			st := history.Measure(results)
			if jsonOut {
				if err := writeJSON(cmd, benchmarkJSON{Runs: st.Runs, Ratings: ratingsOf(results), MaxDelta: st.MaxDelta, QualityDelta: st.QualityDelta(), Epsilon: epsilon, Stable: st.Stable(epsilon)}); err != nil {
					return err
				}
			} else if err := rendererFor(cmd).Benchmark(cmd.OutOrStdout(), results, st, epsilon); err != nil {
				return err
			}
			if !st.Stable(epsilon) {
				return failedRating(fmt.Sprintf("ratings drifted by %.3f (epsilon %.3f)", st.MaxDelta, epsilon))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "n", defaultBenchmarkRuns, "Number of ratings to compare")
	cmd.Flags().Float64Var(&epsilon, "epsilon", defaultBenchmarkEpsilon, "Largest tolerated rating difference")
	cmd.Flags().BoolVar(&replay, "replay", false, "Extract observations once and re-score the replay file for later runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the stability summary as JSON")
	return cmd
}

type benchmarkJSON struct {
	Runs         int       `json:"runs"`
	Ratings      []float64 `json:"ratings"`
	MaxDelta     float64   `json:"maxDelta"`
	QualityDelta float64   `json:"qualityDelta"`
	Epsilon      float64   `json:"epsilon"`
	Stable       bool      `json:"stable"`
}

func ratingsOf(runs []history.Run) []float64 {
	out := make([]float64, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.Rating)
	}
	return out
}
