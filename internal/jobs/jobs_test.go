package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"captionsync/internal/config"
	"captionsync/internal/services"
)

func TestNewRateTaskAssignsJobID(t *testing.T) {
	task, payload, err := NewRateTask(Payload{VideoPath: "  /videos/a.mkv "})
	if err != nil {
		t.Fatalf("NewRateTask failed: %v", err)
	}
	if payload.JobID == "" {
		t.Fatal("expected generated job ID")
	}
	if task.Type() != TypeRateVideo {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	parsed, err := ParsePayload(task)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if parsed.VideoPath != "/videos/a.mkv" || parsed.JobID != payload.JobID {
		t.Fatalf("unexpected parsed payload %#v", parsed)
	}
}

func TestNewRateTaskRequiresInput(t *testing.T) {
	if _, _, err := NewRateTask(Payload{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestPayloadInputPrefersObservations(t *testing.T) {
	p := Payload{VideoPath: "/v.mkv", ObservationsPath: "/v.observations.json"}
	if p.Input() != "/v.observations.json" {
		t.Fatalf("unexpected input %q", p.Input())
	}
}

func TestHandlerOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{"success", nil, false, false},
		{"external tool retried", services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "frame", errors.New("boom")), true, false},
		{"validation not retried", services.Wrap(services.ErrValidation, "probe", "ffprobe", "no video", nil), true, true},
		{"missing input not retried", services.Wrap(services.ErrNotFound, "rate", "stat", "/nope", nil), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Payload
			handler := NewHandler(ProcessorFunc(func(ctx context.Context, p Payload) error {
				got = p
				if id, ok := services.RunIDFromContext(ctx); !ok || id != p.JobID {
					t.Errorf("expected run id %q in context, got %q", p.JobID, id)
				}
				return tt.err
			}), nil)

			task, payload, err := NewRateTask(Payload{VideoPath: "/videos/a.mkv"})
			if err != nil {
				t.Fatalf("NewRateTask failed: %v", err)
			}
			err = handler.ProcessTask(context.Background(), task)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, asynq.SkipRetry) != tt.skipRetry {
				t.Fatalf("SkipRetry = %v, want %v (%v)", errors.Is(err, asynq.SkipRetry), tt.skipRetry, err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected original error to be preserved, got %v", err)
			}
			if got.JobID != payload.JobID {
				t.Fatalf("processor saw payload %#v", got)
			}
		})
	}
}

func TestHandlerFailureHook(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"retryable", services.Wrap(services.ErrTransient, "rate", "redis", "", errors.New("reset")), 0},
		{"permanent", services.Wrap(services.ErrValidation, "probe", "ffprobe", "no video", nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := NewHandler(ProcessorFunc(func(context.Context, Payload) error {
				return tt.err
			}), nil, WithFailureHook(func(_ context.Context, p Payload, err error) {
				calls++
				if p.VideoPath != "/videos/a.mkv" || !errors.Is(err, tt.err) {
					t.Errorf("hook got payload %#v err %v", p, err)
				}
			}))
			task, _, err := NewRateTask(Payload{VideoPath: "/videos/a.mkv"})
			if err != nil {
				t.Fatalf("NewRateTask failed: %v", err)
			}
			_ = handler.ProcessTask(context.Background(), task)
			if calls != tt.want {
				t.Fatalf("hook called %d times, want %d", calls, tt.want)
			}
		})
	}
}

func TestHandlerSkipsMalformedPayload(t *testing.T) {
	called := false
	handler := NewHandler(ProcessorFunc(func(context.Context, Payload) error {
		called = true
		return nil
	}), nil)
	err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeRateVideo, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if called {
		t.Fatal("processor must not run for malformed payloads")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, time.Minute},
		{20, time.Minute},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.n, nil, nil); got != tt.want {
			t.Fatalf("RetryDelay(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.Queue{RedisAddr: "redis:6380", RedisPassword: "pw", RedisDB: 3})
	if opt.Addr != "redis:6380" || opt.Password != "pw" || opt.DB != 3 {
		t.Fatalf("unexpected redis options %#v", opt)
	}
}
