package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"

	"captionsync/internal/config"
	"captionsync/internal/deps"
)

// redisTimeout bounds the queue connectivity check.
const redisTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRedis pings the batch queue's Redis server.
func CheckRedis(ctx context.Context, q config.Queue) Result {
	const name = "Redis queue"
	if q.RedisAddr == "" {
		return Result{Name: name, Detail: "missing address"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:        q.RedisAddr,
		Password:    q.RedisPassword,
		DB:          q.RedisDB,
		DialTimeout: redisTimeout,
	})
	defer client.Close()

	if err := client.Ping(checkCtx).Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", q.RedisAddr, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", q.RedisAddr)}
}

// SystemRequirements lists the external programs a full rating run invokes.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Sampling.FFmpegBinary,
			Description: "Required for frame sampling and audio extraction",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Sampling.FFprobeBinary,
			Description: "Required for media inspection",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX-driven transcription",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        "tesseract",
			Command:     "tesseract",
			Description: "CLI for inspecting installed traineddata; OCR itself links libtesseract",
			Optional:    true,
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckSystemDeps evaluates all system-level dependencies for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, SystemRequirements(cfg))
}
