package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"captionsync/internal/config"
	"captionsync/internal/engine"
	"captionsync/internal/history"
	"captionsync/internal/logging"
	"captionsync/internal/media/ffprobe"
	"captionsync/internal/media/frames"
	"captionsync/internal/services/tesseract"
	"captionsync/internal/services/whisperx"
)

// depsFactory builds the external collaborators for a rating run.
type depsFactory func(cfg *config.Config) engine.Deps

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	deps         depsFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, deps depsFactory) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		deps:         deps,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// newRunner assembles an engine and optional history store for one command.
func (c *commandContext) newRunner(ctx context.Context) (*runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(c.deps(cfg), engine.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	r := &runner{cfg: cfg, engine: eng, logger: logging.NewComponentLogger(logger, "cli")}
	if cfg.Paths.HistoryDB != "" {
		store, err := history.Open(ctx, cfg.Paths.HistoryDB)
		if err != nil {
			return nil, err
		}
		r.history = store
	}
	return r, nil
}

// defaultDeps wires ffmpeg sampling, Tesseract OCR, WhisperX transcription
// and ffprobe.
func defaultDeps(cfg *config.Config) engine.Deps {
	prober := ffprobe.Prober{Binary: cfg.Sampling.FFprobeBinary}
	transcriber := whisperx.NewService(whisperx.Config{
		Model:         cfg.Transcription.Model,
		CUDAEnabled:   cfg.Transcription.CUDAEnabled,
		VADMethod:     cfg.Transcription.VADMethod,
		HFToken:       cfg.Transcription.HFToken,
		Language:      cfg.Transcription.Language,
		WorkDir:       cfg.Paths.WorkDir,
		KeepArtifacts: cfg.Transcription.KeepArtifacts,
	}, cfg.Sampling.FFmpegBinary)
	transcriber.WithStreamProbe(prober.AudioStreams)
	return engine.Deps{
		Sampler: frames.NewSampler(cfg.Sampling.FFmpegBinary, cfg.Sampling.MaxWidth),
		Recognizer: tesseract.New(tesseract.Config{
			Languages:         cfg.OCR.Languages,
			MinLineConfidence: cfg.OCR.MinLineConfidence,
			RegionTop:         cfg.OCR.RegionTop,
			RegionBottom:      cfg.OCR.RegionBottom,
		}),
		Transcriber: transcriber,
		Prober:      prober,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
