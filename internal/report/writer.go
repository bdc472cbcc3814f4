package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"captionsync/internal/fileutil"
	"captionsync/internal/rating"
	"captionsync/internal/services"
)

const (
	// ReportSuffix names JSON reports, "<video>.captionsync.json".
	ReportSuffix = ".captionsync.json"
	// ObservationsSuffix names replay files, "<video>.observations.json".
	ObservationsSuffix = ".observations.json"

	lockTimeout    = 30 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// Path returns the report location for input inside reportDir. An empty
// reportDir places the report beside the input.
func Path(reportDir, input string) string {
	return siblingPath(reportDir, input, ReportSuffix)
}

// ObservationsPath returns the replay file location for input.
func ObservationsPath(reportDir, input string) string {
	return siblingPath(reportDir, input, ObservationsSuffix)
}

func siblingPath(dir, input, suffix string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem(filepath.Base(input))+suffix)
}

// stem drops a known artifact suffix or the media extension, so a report of
// "a.observations.json" lands at "a.captionsync.json".
func stem(base string) string {
	for _, known := range []string{ReportSuffix, ObservationsSuffix} {
		if trimmed, ok := strings.CutSuffix(base, known); ok && trimmed != "" {
			return trimmed
		}
	}
	return fileutil.ReplaceExt(base, "")
}

// Write stores out as JSON at path while holding the path's advisory lock.
func Write(ctx context.Context, path string, out rating.Output) error {
	return WithLock(ctx, path, func() error {
		return fileutil.WriteJSONAtomic(path, out)
	})
}

// WithLock runs fn while holding an exclusive lock on path+".lock".
func WithLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "report", "ensure dir", filepath.Dir(path), err)
	}
	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return services.Wrap(services.ErrTimeout, "report", "lock", path, err)
	}
	if !locked {
		return services.Wrap(services.ErrTimeout, "report", "lock", path+" is held by another process", nil)
	}
	defer func() { _ = lock.Unlock() }()

	if err := fn(); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(path string) (rating.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rating.Output{}, services.Wrap(services.ErrNotFound, "report", "read", path, err)
		}
		return rating.Output{}, fmt.Errorf("read report: %w", err)
	}
	var out rating.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return rating.Output{}, services.Wrap(services.ErrValidation, "report", "decode", path, err)
	}
	return out, nil
}
