package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"captionsync/internal/config"
)

// ConfigOption adjusts a test config before its directories are created.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns the default config with every path rooted in a fresh
// temp dir and redis pointed at a closed port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.ReportDir = filepath.Join(root, "reports")
	cfg.Paths.WorkDir = filepath.Join(root, "work")
	cfg.Paths.HistoryDB = filepath.Join(root, "history", "history.db")
	cfg.Logging.Dir = filepath.Join(root, "logs")
	cfg.Queue.RedisAddr = "127.0.0.1:1"
	for _, opt := range opts {
		opt(t, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// BaseDir is the temp root NewConfig placed the config's paths under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ReportDir)
}

// WithStubbedBinaries puts shell stubs that print a version and exit 0 at the
// front of PATH. With no names it stubs ffmpeg, ffprobe and uvx.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"ffmpeg", "ffprobe", "uvx"}
	}
	return func(t testing.TB, cfg *config.Config) {
		bin := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", bin, err)
		}
		for _, name := range names {
			stub := filepath.Join(bin, name)
			if err := os.WriteFile(stub, []byte("#!/bin/sh\necho stub 1.0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
