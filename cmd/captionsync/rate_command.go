package main

import (
	"github.com/spf13/cobra"
)

func newRateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var noObservations bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "rate <video>",
		Short: "Sample, OCR and transcribe a video, then rate its caption sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !skipPreflight {
				if err := requireSystemDeps(cmd.Context(), cfg); err != nil {
					return err
				}
			}
			r, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := r.rateVideo(cmd.Context(), args[0], !noObservations)
			if err != nil {
				return err
			}
			return emitRating(cmd, res, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the rating output as JSON instead of a summary")
	cmd.Flags().BoolVar(&noObservations, "no-observations", false, "Do not save the observations replay file")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip the external program checks")
	return cmd
}

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "score <observations.json>",
		Short: "Rate previously extracted observations without running OCR or ASR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := r.scoreObservations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emitRating(cmd, res, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the rating output as JSON instead of a summary")
	return cmd
}
