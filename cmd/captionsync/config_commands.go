package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"captionsync/internal/config"
	"captionsync/internal/language"
)

var skipConfigLoad = map[string]string{"skipConfigLoad": "true"}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(), newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		dest      string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample config",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := resolveConfigTarget(dest)
			if err != nil {
				return err
			}
			if err := writeSampleConfig(target, overwrite); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set transcription.hf_token (or export HF_TOKEN) before using pyannote VAD.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func resolveConfigTarget(raw string) (string, error) {
	if raw = strings.TrimSpace(raw); raw == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return p, nil
	}
	p, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return p, nil
}

func writeSampleConfig(target string, overwrite bool) error {
	if !overwrite {
		_, err := os.Stat(target)
		switch {
		case err == nil:
			return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("check config path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("create sample config: %w", err)
	}
	return nil
}

// requestedConfig picks the positional path, falling back to --config.
func requestedConfig(cmd *cobra.Command, args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate [path]",
		Short:       "Load a config file and report problems",
		Args:        cobra.MaximumNArgs(1),
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(requestedConfig(cmd, args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			printConfigSummary(out, cfg)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func printConfigSummary(out io.Writer, cfg *config.Config) {
	langs := make([]string, 0, len(cfg.OCR.Languages))
	for _, code := range cfg.OCR.Languages {
		langs = append(langs, language.DisplayName(code))
	}
	fmt.Fprintf(out, "Reports: %s\n", cfg.Paths.ReportDir)
	fmt.Fprintf(out, "OCR: %s (%s), %d workers at %.1f fps\n",
		cfg.OCR.Engine, strings.Join(langs, ", "), cfg.OCR.Workers, cfg.Sampling.FPS)
	if cfg.Notifications.NtfyTopic != "" {
		fmt.Fprintf(out, "Notifications: %s\n", cfg.Notifications.NtfyTopic)
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show [path]",
		Short:       "Print the effective config after defaults and env overrides",
		Args:        cobra.MaximumNArgs(1),
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(requestedConfig(cmd, args))
			if err != nil {
				return err
			}
			shown := *cfg
			redact(&shown.Transcription.HFToken)
			redact(&shown.Queue.RedisPassword)
			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func redact(secret *string) {
	if *secret != "" {
		*secret = "<redacted>"
	}
}
