package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"captionsync/internal/caption"
	"captionsync/internal/drift"
	"captionsync/internal/logging"
	"captionsync/internal/matcher"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
	"captionsync/internal/rating"
	"captionsync/internal/services"
)

// Pipeline stage names used in logs and errors.
const (
	StageProbe      = "probe"
	StageSample     = "sample"
	StageOCR        = "ocr"
	StageTranscribe = "transcribe"
	StageScore      = "score"
)

// Engine rates videos. It is safe for concurrent use.
type Engine struct {
	deps   Deps
	opts   Options
	scorer *quality.Scorer
	logger *slog.Logger
}

// Run is the result of Rate: the rating plus the observations it was
// computed from.
type Run struct {
	Output       rating.Output
	Observations Observations
}

// New validates opts and builds an engine.
func New(deps Deps, opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "options", "", err)
	}
	scorer, err := quality.NewScorer(opts.Thresholds, opts.Weights)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "engine", "options", "", err)
	}
	return &Engine{
		deps:   deps,
		opts:   opts,
		scorer: scorer,
		logger: logging.NewComponentLogger(logger, "engine"),
	}, nil
}

// Rate runs the full pipeline for one video.
func (e *Engine) Rate(ctx context.Context, videoPath string) (Run, error) {
	if e.deps.Sampler == nil || e.deps.Recognizer == nil || e.deps.Transcriber == nil || e.deps.Prober == nil {
		return Run{}, services.Wrap(services.ErrConfiguration, "engine", "rate", "sampler, recognizer, transcriber and prober are required", nil)
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return Run{}, services.Wrap(services.ErrValidation, "engine", "open video", videoPath, err)
	}
	if info.IsDir() {
		return Run{}, services.Wrap(services.ErrValidation, "engine", "open video", videoPath+" is a directory", nil)
	}

	ctx = services.WithVideo(ctx, videoPath)
	started := time.Now()

	duration, err := e.probe(ctx, videoPath)
	if err != nil {
		return Run{}, err
	}

	if e.opts.WorkDir != "" {
		if err := os.MkdirAll(e.opts.WorkDir, 0o755); err != nil {
			return Run{}, services.Wrap(services.ErrConfiguration, "engine", "create work dir", e.opts.WorkDir, err)
		}
	}
	scratch, err := os.MkdirTemp(e.opts.WorkDir, "frames-")
	if err != nil {
		return Run{}, services.Wrap(services.ErrConfiguration, "engine", "create scratch dir", e.opts.WorkDir, err)
	}
	defer os.RemoveAll(scratch)

	frames, err := e.sample(ctx, videoPath, scratch)
	if err != nil {
		return Run{}, err
	}

	observations, failed, err := e.recognize(ctx, frames)
	if err != nil {
		return Run{}, err
	}

	words, err := e.transcribe(ctx, videoPath)
	if err != nil {
		return Run{}, err
	}

	obs := Observations{
		VideoName:       filepath.Base(videoPath),
		DurationSec:     duration,
		SampleFPS:       e.opts.SampleFPS,
		OCREngine:       nameOf(e.deps.Recognizer, "ocr"),
		ASREngine:       nameOf(e.deps.Transcriber, "asr"),
		FramesFailed:    failed,
		AsrWords:        words,
		OcrObservations: observations,
	}
	out, err := e.Score(ctx, obs)
	if err != nil {
		return Run{}, err
	}
	logging.WithContext(ctx, e.logger).Info("video rated",
		logging.Float64("rating", out.Rating),
		logging.String("label", string(out.Label)),
		logging.Bool("passed", out.Passed),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return Run{Output: out, Observations: obs}, nil
}

// Score rates pre-extracted observations. It calls no external engine and is
// a pure function of obs and the engine options.
func (e *Engine) Score(ctx context.Context, obs Observations) (rating.Output, error) {
	if err := ctx.Err(); err != nil {
		return rating.Output{}, services.Wrap(services.ErrTransient, StageScore, "score", "", err)
	}
	if err := obs.Validate(); err != nil {
		return rating.Output{}, services.Wrap(services.ErrValidation, StageScore, "validate observations", obs.VideoName, err)
	}
	logger := logging.WithContext(services.WithStage(ctx, StageScore), e.logger)

	fallback := 0.1
	if obs.SampleFPS > 0 {
		fallback = 1 / obs.SampleFPS
	}
	sorted := caption.SortObservations(obs.OcrObservations)
	interval := caption.FrameInterval(sorted, fallback)
	segments := caption.BuildSegments(sorted, interval)
	tokens := caption.Tokens(segments)

	match := matcher.Match(obs.AsrWords, tokens, e.opts.Matching)
	driftAnalysis := drift.Analyze(match.Matches, match.MatchRatio, e.opts.Drift)
	pacingReport := pacing.Analyze(obs.AsrWords, e.opts.Pacing)
	qualityReport := e.scorer.Score(quality.Input{
		Frames:           sorted,
		DurationSec:      obs.DurationSec,
		FrameIntervalSec: interval,
		Pacing:           &pacingReport,
	})

	withText := 0
	for _, o := range sorted {
		if o.HasText() {
			withText++
		}
	}

	out := rating.Combine(rating.Input{
		Match:   match,
		Drift:   driftAnalysis,
		Quality: qualityReport,
		Pacing:  pacingReport,
		Analysis: rating.Analysis{
			VideoName:      obs.VideoName,
			OCREngine:      obs.OCREngine,
			ASREngine:      obs.ASREngine,
			SampleFPS:      obs.SampleFPS,
			DurationSec:    obs.DurationSec,
			FramesSampled:  len(sorted),
			FramesWithText: withText,
			FramesFailed:   obs.FramesFailed,
			Segments:       len(segments),
		},
	}, e.opts.Rating)

	logger.Debug("observations scored",
		logging.Int("segments", len(segments)),
		logging.Int("ocr_tokens", len(tokens)),
		logging.Int("matched", match.MatchedCount),
		logging.Float64("match_ratio", match.MatchRatio),
		logging.Float64("quality", qualityReport.Overall.Score),
	)
	for _, syncErr := range driftAnalysis.Errors {
		logger.Info("sync issue detected",
			logging.String("type", string(syncErr.Type)),
			logging.String("severity", string(syncErr.Severity)),
			logging.String("detail", syncErr.Message),
		)
	}
	return out, nil
}

func (e *Engine) probe(ctx context.Context, videoPath string) (float64, error) {
	ctx = services.WithStage(ctx, StageProbe)
	callCtx, cancel := withTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()
	duration, err := e.deps.Prober.Duration(callCtx, videoPath)
	if err != nil {
		return 0, collaboratorError(StageProbe, "probe duration", videoPath, err)
	}
	logging.WithContext(ctx, e.logger).Debug("video probed", logging.Float64("duration_sec", duration))
	return duration, nil
}

func (e *Engine) sample(ctx context.Context, videoPath, dir string) ([]caption.Frame, error) {
	ctx = services.WithStage(ctx, StageSample)
	callCtx, cancel := withTimeout(ctx, e.opts.SampleTimeout)
	defer cancel()
	frames, err := e.deps.Sampler.Sample(callCtx, videoPath, e.opts.SampleFPS, dir)
	if err != nil {
		return nil, collaboratorError(StageSample, "sample frames", videoPath, err)
	}
	logging.WithContext(ctx, e.logger).Info("frames sampled",
		logging.Int("frames", len(frames)),
		logging.Float64("fps", e.opts.SampleFPS),
	)
	return frames, nil
}

// recognize fans frame OCR out over the worker pool. Results land in a slice
// indexed by input position, so completion order never matters.
func (e *Engine) recognize(ctx context.Context, frames []caption.Frame) ([]caption.OcrObservation, int, error) {
	ctx = services.WithStage(ctx, StageOCR)
	logger := logging.WithContext(ctx, e.logger)
	observations := make([]caption.OcrObservation, len(frames))
	if len(frames) == 0 {
		return observations, 0, nil
	}

	var limiter *rate.Limiter
	if e.opts.OCRRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.opts.OCRRateLimit), 1)
	}

	var (
		failed   atomic.Int64
		progress = logging.NewProgress(len(frames), 10)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, frame := range frames {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			obs, err := e.recognizeFrame(gctx, frame)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, services.ErrConfiguration) {
					return err
				}
				failed.Add(1)
				logging.WarnWithContext(logger, "frame recognition failed", "ocr_frame_failed",
					logging.Int("frame", frame.Index),
					logging.Float64("time_sec", frame.TimeSec),
					logging.Error(err),
					logging.String(logging.FieldImpact, "frame treated as showing no caption"),
					logging.String(logging.FieldErrorHint, "check the OCR engine installation and frame image"),
				)
				obs = caption.OcrObservation{FrameIndex: frame.Index, TimeSec: frame.TimeSec}
			}
			observations[i] = obs

			if n, emit := progress.Tick(); emit {
				logger.Info("ocr progress",
					logging.Int("done", n),
					logging.Int("total", progress.Total()),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return nil, 0, err
		}
		return nil, 0, services.Wrap(services.ErrTransient, StageOCR, "recognize frames", "", err)
	}
	if n := int(failed.Load()); n == len(frames) {
		return nil, n, services.Wrap(services.ErrExternalTool, StageOCR, "recognize frames",
			fmt.Sprintf("all %d frames failed", n), nil)
	}
	return observations, int(failed.Load()), nil
}

func (e *Engine) recognizeFrame(ctx context.Context, frame caption.Frame) (caption.OcrObservation, error) {
	callCtx, cancel := withTimeout(ctx, e.opts.FrameTimeout)
	defer cancel()
	rec, err := e.deps.Recognizer.Recognize(callCtx, frame)
	if err != nil {
		return caption.OcrObservation{}, err
	}
	return rec.Observation(frame), nil
}

func (e *Engine) transcribe(ctx context.Context, videoPath string) ([]caption.AsrWord, error) {
	ctx = services.WithStage(ctx, StageTranscribe)
	callCtx, cancel := withTimeout(ctx, e.opts.TranscriptionTimeout)
	defer cancel()
	words, err := e.deps.Transcriber.Transcribe(callCtx, videoPath)
	if err != nil {
		return nil, collaboratorError(StageTranscribe, "transcribe audio", videoPath, err)
	}
	if words == nil {
		words = []caption.AsrWord{}
	}
	logging.WithContext(ctx, e.logger).Info("audio transcribed", logging.Int("words", len(words)))
	return words, nil
}

// collaboratorError tags a failure as an external tool error. A
// classification the collaborator already applied (for example a probe that
// found no video stream) is kept for errors.Is.
func collaboratorError(stage, operation, input string, err error) error {
	return services.Wrap(services.ErrExternalTool, stage, operation, "input "+input, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
