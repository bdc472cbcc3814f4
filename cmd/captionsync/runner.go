package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"captionsync/internal/config"
	"captionsync/internal/engine"
	"captionsync/internal/history"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/notifications"
	"captionsync/internal/rating"
	"captionsync/internal/report"
	"captionsync/internal/services"
)

// runner rates inputs and persists their artifacts. It holds no per-run
// state, so one runner serves every job of a worker.
type runner struct {
	cfg      *config.Config
	engine   *engine.Engine
	history  *history.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// rated is the outcome of one rating with the artifacts written for it.
type rated struct {
	Input            string        `json:"input"`
	ReportPath       string        `json:"reportPath,omitempty"`
	ObservationsPath string        `json:"observationsPath,omitempty"`
	RunID            string        `json:"runId,omitempty"`
	Output           rating.Output `json:"output"`
}

func (r *runner) Close() error {
	if r == nil || r.history == nil {
		return nil
	}
	return r.history.Close()
}

// rateVideo runs the full pipeline on videoPath.
func (r *runner) rateVideo(ctx context.Context, videoPath string, saveObservations bool) (rated, error) {
	abs, err := absPath(videoPath)
	if err != nil {
		return rated{}, err
	}
	ctx = ensureRunID(ctx)

	run, err := r.engine.Rate(ctx, abs)
	if err != nil {
		return rated{}, err
	}
	res := rated{Input: abs, Output: run.Output}
	if saveObservations {
		res.ObservationsPath = report.ObservationsPath(r.cfg.Paths.ReportDir, abs)
		err := report.WithLock(ctx, res.ObservationsPath, func() error {
			return engine.SaveObservations(res.ObservationsPath, run.Observations)
		})
		if err != nil {
			return rated{}, err
		}
	}
	return r.finish(ctx, res, history.SourceVideo)
}

// scoreObservations re-rates a replay file without external engines.
func (r *runner) scoreObservations(ctx context.Context, path string) (rated, error) {
	abs, err := absPath(path)
	if err != nil {
		return rated{}, err
	}
	ctx = ensureRunID(ctx)

	obs, err := engine.LoadObservations(abs)
	if err != nil {
		return rated{}, err
	}
	out, err := r.engine.Score(services.WithVideo(ctx, abs), obs)
	if err != nil {
		return rated{}, err
	}
	return r.finish(ctx, rated{Input: abs, Output: out}, history.SourceObservations)
}

func (r *runner) finish(ctx context.Context, res rated, source history.Source) (rated, error) {
	res.ReportPath = report.Path(r.cfg.Paths.ReportDir, res.Input)
	if err := report.Write(ctx, res.ReportPath, res.Output); err != nil {
		return rated{}, err
	}
	res.RunID = r.record(ctx, res, source)
	return res, nil
}

// record stores the run in history. History is advisory: a failure is
// logged and the rating still succeeds.
func (r *runner) record(ctx context.Context, res rated, source history.Source) string {
	if r.history == nil {
		return ""
	}
	run := history.NewRun(res.Input, source, res.Output)
	run.ReportPath = res.ReportPath
	stored, err := r.history.Record(ctx, run)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "rating history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history_db permissions or delete the database"),
			logging.String(logging.FieldImpact, "benchmark and history will not include this run"),
		)
		return ""
	}
	return stored.ID
}

// Process implements jobs.Processor. A completed rating that fails its gate
// is still a successful job; its report records the failure.
func (r *runner) Process(ctx context.Context, payload jobs.Payload) error {
	var (
		res rated
		err error
	)
	if payload.ObservationsPath != "" {
		res, err = r.scoreObservations(ctx, payload.ObservationsPath)
	} else {
		res, err = r.rateVideo(ctx, payload.VideoPath, payload.SaveObservations)
	}
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("report written",
		logging.String("report", res.ReportPath),
		logging.Float64("rating", res.Output.Rating),
		logging.Bool("passed", res.Output.Passed),
	)
	if r.notifier != nil {
		if err := r.notifier.NotifyRated(ctx, res.Input, res.Output); err != nil {
			r.notifyFailed(ctx, err)
		}
	}
	return nil
}

// jobFailed is the worker's hook for jobs that will not be retried.
func (r *runner) jobFailed(ctx context.Context, payload jobs.Payload, jobErr error) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyJobFailed(ctx, payload.Input(), jobErr); err != nil {
		r.notifyFailed(ctx, err)
	}
}

func (r *runner) notifyFailed(ctx context.Context, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "notification not sent", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		logging.String(logging.FieldImpact, "rating outcome not announced"),
	)
}

func ensureRunID(ctx context.Context) context.Context {
	if _, ok := services.RunIDFromContext(ctx); ok {
		return ctx
	}
	return services.WithRunID(ctx, uuid.NewString())
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve path", path, err)
	}
	return abs, nil
}
