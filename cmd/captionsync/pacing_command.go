package main

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"captionsync/internal/caption"
	"captionsync/internal/engine"
	"captionsync/internal/pacing"
	"captionsync/internal/services"
)

func newPacingCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "pacing <words.json>",
		Short: "Chunk a word timeline into captions and flag chunks shown too briefly",
		Long: "Reads either a JSON array of words ({text, startSec, endSec}) or an " +
			"observations file and reports caption pacing under the configured layout policy.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			words, err := loadWords(args[0])
			if err != nil {
				return err
			}
			rep := pacing.Analyze(words, cfg.Layout)
			if jsonOut {
				return writeJSON(cmd, rep)
			}
			return rendererFor(cmd).Pacing(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the pacing report as JSON")
	return cmd
}

// loadWords accepts a bare word array or an observations file.
func loadWords(path string) ([]caption.AsrWord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "pacing", "read words", path, err)
		}
		return nil, services.Wrap(services.ErrValidation, "pacing", "read words", path, err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var words []caption.AsrWord
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return nil, services.Wrap(services.ErrValidation, "pacing", "decode words", path, err)
		}
		return words, nil
	}
	obs, err := engine.LoadObservations(path)
	if err != nil {
		return nil, err
	}
	return obs.AsrWords, nil
}
