package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"captionsync/internal/config"
	"captionsync/internal/drift"
	"captionsync/internal/matcher"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
	"captionsync/internal/rating"
)

// Options tunes a rating run.
type Options struct {
	SampleFPS float64
	// Workers bounds concurrent frame recognitions.
	Workers int
	// OCRRateLimit caps recognitions per second; zero means unlimited.
	OCRRateLimit float64
	// WorkDir is the parent of each run's scratch directory. Empty uses the
	// system temp dir.
	WorkDir string

	SampleTimeout        time.Duration
	FrameTimeout         time.Duration
	TranscriptionTimeout time.Duration
	ProbeTimeout         time.Duration

	Matching   matcher.Options
	Drift      drift.Config
	Rating     rating.Config
	Pacing     pacing.Policy
	Thresholds quality.Thresholds
	Weights    quality.Weights
}

// DefaultOptions mirrors config.Default, with scratch space in the system
// temp dir.
func DefaultOptions() Options {
	cfg := config.Default()
	opts := OptionsFromConfig(&cfg)
	opts.WorkDir = ""
	return opts
}

// OptionsFromConfig maps loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SampleFPS:            cfg.Sampling.FPS,
		Workers:              cfg.OCR.Workers,
		OCRRateLimit:         cfg.OCR.RateLimit,
		WorkDir:              cfg.Paths.WorkDir,
		SampleTimeout:        cfg.SampleTimeout(),
		FrameTimeout:         cfg.FrameTimeout(),
		TranscriptionTimeout: cfg.TranscriptionTimeout(),
		ProbeTimeout:         defaultProbeTimeout,
		Matching:             matcher.Options{WindowMs: cfg.Matching.WindowMs},
		Drift:                cfg.Drift,
		Rating:               cfg.Rating,
		Pacing:               cfg.Layout,
		Thresholds:           cfg.Quality.Thresholds,
		Weights:              cfg.Quality.Weights,
	}
}

const defaultProbeTimeout = time.Minute

func (o Options) validate() error {
	if o.SampleFPS <= 0 || math.IsNaN(o.SampleFPS) || math.IsInf(o.SampleFPS, 0) {
		return fmt.Errorf("sample fps must be positive, got %v", o.SampleFPS)
	}
	if o.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if o.OCRRateLimit < 0 {
		return errors.New("ocr rate limit must be non-negative")
	}
	if err := o.Drift.Validate(); err != nil {
		return fmt.Errorf("drift: %w", err)
	}
	if err := o.Rating.Validate(); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	if err := o.Pacing.Validate(); err != nil {
		return fmt.Errorf("pacing: %w", err)
	}
	return nil
}
