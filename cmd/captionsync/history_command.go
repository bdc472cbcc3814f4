package main

import (
	"github.com/spf13/cobra"

	"captionsync/internal/history"
	"captionsync/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history [video|observations.json]",
		Short: "List recorded ratings, optionally for one input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.HistoryDB == "" {
				return services.Wrap(services.ErrConfiguration, "history", "open", "paths.history_db is empty; history is disabled", nil)
			}
			store, err := history.Open(cmd.Context(), cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []history.Run
			if len(args) == 1 {
				abs, err := absPath(args[0])
				if err != nil {
					return err
				}
				runs, err = store.ListByVideo(cmd.Context(), abs, limit)
				if err != nil {
					return err
				}
			} else {
				runs, err = store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}
			if jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			return rendererFor(cmd).History(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}
