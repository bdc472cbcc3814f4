package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captionsync/internal/caption"
	"captionsync/internal/config"
	"captionsync/internal/engine"
	"captionsync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"CAPTIONSYNC_REDIS_ADDR", "CAPTIONSYNC_REDIS_DB", "CAPTIONSYNC_LOG_LEVEL", "CAPTIONSYNC_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}

	if len(opts) == 0 {
		opts = []testsupport.ConfigOption{testsupport.WithStubbedBinaries()}
	}
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
report_dir = %q
work_dir = %q
history_db = %q

[queue]
redis_addr = %q

[logging]
dir = %q
level = "error"
`,
		cfg.Paths.ReportDir,
		cfg.Paths.WorkDir,
		cfg.Paths.HistoryDB,
		cfg.Queue.RedisAddr,
		cfg.Logging.Dir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, deps depsFactory, args ...string) (string, string, error) {
	t.Helper()
	if deps == nil {
		deps = defaultDeps
	}
	cmd := newRootCommandWithDeps(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// fixtureDeps replays HelloObservations through fake collaborators.
func fixtureDeps(proberErr error) depsFactory {
	obs := testsupport.HelloObservations()
	return func(*config.Config) engine.Deps {
		return engine.Deps{
			Sampler:     fixtureSampler{obs: obs},
			Recognizer:  fixtureRecognizer{obs: obs},
			Transcriber: fixtureTranscriber{words: obs.AsrWords},
			Prober:      fixtureProber{duration: obs.DurationSec, err: proberErr},
		}
	}
}

type fixtureSampler struct{ obs engine.Observations }

func (s fixtureSampler) Sample(_ context.Context, _ string, _ float64, dir string) ([]caption.Frame, error) {
	frames := make([]caption.Frame, len(s.obs.OcrObservations))
	for i, o := range s.obs.OcrObservations {
		frames[i] = caption.Frame{Index: o.FrameIndex, TimeSec: o.TimeSec, Path: filepath.Join(dir, fmt.Sprintf("%06d.png", i))}
	}
	return frames, nil
}

type fixtureRecognizer struct{ obs engine.Observations }

func (r fixtureRecognizer) Name() string { return "fixture-ocr" }

func (r fixtureRecognizer) Recognize(_ context.Context, frame caption.Frame) (caption.Recognition, error) {
	o := r.obs.OcrObservations[frame.Index]
	return caption.Recognition{Text: o.RawText, Confidence: o.Confidence, BBox: o.BBox}, nil
}

type fixtureTranscriber struct{ words []caption.AsrWord }

func (fixtureTranscriber) Name() string { return "fixture-asr" }

func (t fixtureTranscriber) Transcribe(context.Context, string) ([]caption.AsrWord, error) {
	return t.words, nil
}

type fixtureProber struct {
	duration float64
	err      error
}

func (p fixtureProber) Duration(context.Context, string) (float64, error) { return p.duration, p.err }

func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

// requireRatingExit accepts a completed rating whichever way its gate went.
func requireRatingExit(t *testing.T, err error) {
	t.Helper()
	if code := exitCode(err); code != 0 && code != 1 {
		t.Fatalf("expected rating exit code 0 or 1, got %d (%v)", code, err)
	}
}
