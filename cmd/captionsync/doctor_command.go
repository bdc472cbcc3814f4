package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionsync/internal/notifications"
	"captionsync/internal/preflight"
	"captionsync/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var (
		checkQueue bool
		testNotify bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external programs, directories and the batch queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Queue: checkQueue})
			if err := rendererFor(cmd).Checks(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "checks", fmt.Sprintf("%d required check(s) failed", len(failed)), nil)
			}
			if testNotify {
				if cfg.Notifications.NtfyTopic == "" {
					return services.Wrap(services.ErrConfiguration, "doctor", "notify", "notifications.ntfy_topic is not set", nil)
				}
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					return services.Wrap(services.ErrExternalTool, "doctor", "notify", cfg.Notifications.NtfyTopic, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All required checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkQueue, "queue", false, "Also check Redis connectivity for enqueue/worker")
	cmd.Flags().BoolVar(&testNotify, "notify", false, "Send a test ntfy notification")
	return cmd
}
