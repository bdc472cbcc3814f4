package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"captionsync/internal/jobs"
	"captionsync/internal/notifications"
	"captionsync/internal/services"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var observations bool
	var saveObservations bool

	cmd := &cobra.Command{
		Use:   "enqueue <input>...",
		Short: "Submit videos (or observations files) to the batch rating queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			payloads := make([]jobs.Payload, 0, len(args))
			for _, arg := range args {
				abs, err := absPath(arg)
				if err != nil {
					return err
				}
				info, err := os.Stat(abs)
				if err != nil {
					return services.Wrap(services.ErrValidation, "enqueue", "stat", abs, err)
				}
				if info.IsDir() {
					return services.Wrap(services.ErrValidation, "enqueue", "stat", abs+" is a directory", nil)
				}
				p := jobs.Payload{SaveObservations: saveObservations}
				if observations {
					p.ObservationsPath = abs
				} else {
					p.VideoPath = abs
				}
				payloads = append(payloads, p)
			}

			if err := requireRedis(cmd.Context(), cfg); err != nil {
				return err
			}
			client := jobs.NewClient(cfg.Queue, cfg.JobTimeout())
			defer client.Close()

			out := cmd.OutOrStdout()
			for _, p := range payloads {
				queued, err := client.Enqueue(cmd.Context(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Queued %s %s\n", queued.JobID, queued.Input())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&observations, "observations", false, "Treat inputs as observations files and skip OCR/ASR")
	cmd.Flags().BoolVar(&saveObservations, "save-observations", true, "Save an observations replay file for each video")
	return cmd
}

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume rating jobs from the batch queue until interrupted",
		Args:  cobra.NoArgs,
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
			if err := requireRedis(cmd.Context(), cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			r, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()
			r.notifier = notifications.NewService(cfg)

			return jobs.NewWorker(cfg.Queue, r, logger, jobs.WithFailureHook(r.jobFailed)).Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip the external program checks")
	return cmd
}
