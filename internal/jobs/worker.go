package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"captionsync/internal/config"
	"captionsync/internal/logging"
	"captionsync/internal/services"
)

// Processor rates one job. Implementations must not share per-job state.
type Processor interface {
	Process(ctx context.Context, payload Payload) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, payload Payload) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}

// FailureFunc observes a job that will not be retried again.
type FailureFunc func(ctx context.Context, payload Payload, err error)

// Option customizes a Handler or Worker.
type Option func(*Handler)

// WithFailureHook calls fn once per job that fails for good.
func WithFailureHook(fn FailureFunc) Option {
	return func(h *Handler) { h.onFailure = fn }
}

// Handler is the asynq handler for rate tasks.
type Handler struct {
	processor Processor
	logger    *slog.Logger
	onFailure FailureFunc
}

// NewHandler wraps processor for asynq.
func NewHandler(processor Processor, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Handler{processor: processor, logger: logging.NewComponentLogger(logger, "jobs")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ProcessTask implements asynq.Handler. Errors that retrying cannot fix are
// marked with asynq.SkipRetry.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePayload(task)
	if err != nil {
		logging.WarnWithContext(h.logger, "dropping malformed task", "job_payload_invalid",
			logging.String("task_type", task.Type()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-enqueue the video with captionsync enqueue"),
			logging.String(logging.FieldImpact, "job discarded"),
		)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ctx = services.WithRunID(ctx, payload.JobID)
	ctx = services.WithVideo(ctx, payload.Input())
	logger := logging.WithContext(ctx, h.logger)
	retry, _ := asynq.GetRetryCount(ctx)
	logger.Info("job started", logging.Int("retry", retry))

	start := time.Now()
	err = h.processor.Process(ctx, payload)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err == nil {
		logger.Info("job completed", logging.Duration("elapsed", elapsed))
		return nil
	}
	if !services.Retryable(err) {
		logging.ErrorWithContext(logger, "job failed permanently", "job_failed",
			logging.Error(err),
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldErrorHint, "fix the input or configuration and re-enqueue"),
		)
		h.failed(ctx, payload, err)
		return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}
	if maxRetry, ok := asynq.GetMaxRetry(ctx); ok && retry >= maxRetry {
		h.failed(ctx, payload, err)
	}
	logging.WarnWithContext(logger, "job failed; will retry", "job_retry",
		logging.Error(err),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldErrorHint, "check the external tool logs"),
		logging.String(logging.FieldImpact, "job retried with backoff"),
	)
	return err
}

func (h *Handler) failed(ctx context.Context, payload Payload, err error) {
	if h.onFailure != nil {
		h.onFailure(ctx, payload, err)
	}
}

// Worker consumes rate tasks until its context is canceled.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker builds a worker for the queue described by q.
func NewWorker(q config.Queue, processor Processor, logger *slog.Logger, opts ...Option) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	componentLogger := logging.NewComponentLogger(logger, "worker")
	server := asynq.NewServer(RedisOpt(q), asynq.Config{
		Concurrency:    q.Concurrency,
		Queues:         map[string]int{q.Name: 1},
		RetryDelayFunc: RetryDelay,
		Logger:         asynqLogger{logger: componentLogger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if errors.Is(err, asynq.SkipRetry) || retried >= maxRetry {
				componentLogger.Error("job exhausted",
					logging.String("task_type", task.Type()),
					logging.Int("retried", retried),
					logging.Error(err),
				)
			}
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeRateVideo, NewHandler(processor, logger, opts...))
	return &Worker{server: server, mux: mux, logger: componentLogger}
}

// Run starts processing and blocks until ctx is done, then drains in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return services.Wrap(services.ErrTransient, "worker", "start", "asynq server", err)
	}
	w.logger.Info("worker started")
	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return nil
}

// RetryDelay backs off exponentially from 5s, capped at one minute.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 4 {
		return time.Minute
	}
	delay := time.Duration(5*(1<<uint(n))) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
