package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/config"
	"captionsync/internal/deps"
	"captionsync/internal/preflight"
	"captionsync/internal/report"
	"captionsync/internal/services"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rendererFor(cmd *cobra.Command) report.Renderer {
	f, ok := cmd.OutOrStdout().(*os.File)
	return report.Renderer{Color: ok && report.ColorEnabled(f)}
}

// emitRating prints res and converts a failed gate into exit code 1.
func emitRating(cmd *cobra.Command, res rated, jsonOut bool) error {
	if jsonOut {
		if err := writeJSON(cmd, res.Output); err != nil {
			return err
		}
	} else {
		if err := rendererFor(cmd).Summary(cmd.OutOrStdout(), res.Output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport: %s\n", res.ReportPath)
		if res.ObservationsPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Observations: %s\n", res.ObservationsPath)
		}
	}
	if !res.Output.Passed {
		return failedRating(fmt.Sprintf("%s rated %.1f (%s)", res.Input, res.Output.Rating, res.Output.Label))
	}
	return nil
}

// requireSystemDeps fails fast when a required external program is missing.
func requireSystemDeps(ctx context.Context, cfg *config.Config) error {
	missing := deps.Missing(preflight.CheckSystemDeps(ctx, cfg))
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "system dependencies",
		"missing "+strings.Join(names, ", ")+"; run `captionsync doctor`", nil)
}

// requireRedis fails fast when the batch queue is unreachable.
func requireRedis(ctx context.Context, cfg *config.Config) error {
	res := preflight.CheckRedis(ctx, cfg.Queue)
	if res.Passed {
		return nil
	}
	return services.Wrap(services.ErrExternalTool, "preflight", "redis", res.Detail, nil)
}
