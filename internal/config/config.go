package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"captionsync/internal/drift"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
	"captionsync/internal/rating"
	"captionsync/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and scratch locations.
type Paths struct {
	ReportDir string `toml:"report_dir"`
	WorkDir   string `toml:"work_dir"`
	HistoryDB string `toml:"history_db"`
}

// Sampling controls frame extraction.
type Sampling struct {
	FPS            float64 `toml:"fps"`
	MaxWidth       int     `toml:"max_width"`
	FFmpegBinary   string  `toml:"ffmpeg_binary"`
	FFprobeBinary  string  `toml:"ffprobe_binary"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// OCR selects and tunes the frame recognizer.
type OCR struct {
	Engine              string   `toml:"engine"`
	Languages           []string `toml:"languages"`
	MinLineConfidence   float64  `toml:"min_line_confidence"`
	RegionTop           float64  `toml:"region_top"`
	RegionBottom        float64  `toml:"region_bottom"`
	Workers             int      `toml:"workers"`
	RateLimit           float64  `toml:"rate_limit"`
	FrameTimeoutSeconds int      `toml:"frame_timeout_seconds"`
}

// Transcription configures the WhisperX transcriber.
type Transcription struct {
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	Language       string `toml:"language"`
	KeepArtifacts  bool   `toml:"keep_artifacts"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Matching tunes word alignment.
type Matching struct {
	WindowMs float64 `toml:"window_ms"`
}

// Quality holds caption quality thresholds and factor weights.
type Quality struct {
	Thresholds quality.Thresholds `toml:"thresholds"`
	Weights    quality.Weights    `toml:"weights"`
}

// Queue configures the Redis-backed batch rating queue.
type Queue struct {
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	Name           string `toml:"name"`
	Concurrency    int    `toml:"concurrency"`
	MaxRetry       int    `toml:"max_retry"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications configures ntfy alerts for queued ratings.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	FailuresOnly          bool   `toml:"failures_only"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for captionsync.
//
// Configuration sections by subsystem:
//   - Paths: report, scratch, and history locations
//   - Sampling: ffmpeg frame extraction
//   - OCR: recognizer engine and worker pool
//   - Transcription: WhisperX settings
//   - Matching, Drift, Rating: sync rating tunables
//   - Layout: caption pacing policy
//   - Quality: quality thresholds and weights
//   - Queue: batch rating over Redis
//   - Notifications: ntfy alerts from the worker
//   - Logging: log format, level, and directory
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sampling      Sampling      `toml:"sampling"`
	OCR           OCR           `toml:"ocr"`
	Transcription Transcription `toml:"transcription"`
	Matching      Matching      `toml:"matching"`
	Drift         drift.Config  `toml:"drift"`
	Rating        rating.Config `toml:"rating"`
	Layout        pacing.Policy `toml:"layout"`
	Quality       Quality       `toml:"quality"`
	Queue         Queue         `toml:"queue"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Every failure is tagged ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, configError("resolve", err)
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, configError("parse", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, configError("normalize", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, configError("validate", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	// A [quality.weights] table replaces the defaults wholesale; normalize
	// restores them when the file has none.
	cfg.Quality.Weights = nil
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func configError(operation string, err error) error {
	return services.Wrap(services.ErrConfiguration, "config", operation, "", err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the report and scratch directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ReportDir, c.Paths.WorkDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SampleTimeout bounds frame extraction.
func (c *Config) SampleTimeout() time.Duration {
	return seconds(c.Sampling.TimeoutSeconds)
}

// FrameTimeout bounds a single frame recognition.
func (c *Config) FrameTimeout() time.Duration {
	return seconds(c.OCR.FrameTimeoutSeconds)
}

// TranscriptionTimeout bounds the WhisperX run.
func (c *Config) TranscriptionTimeout() time.Duration {
	return seconds(c.Transcription.TimeoutSeconds)
}

// JobTimeout bounds one queued rating.
func (c *Config) JobTimeout() time.Duration {
	return seconds(c.Queue.TimeoutSeconds)
}

func seconds(v int) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
