package config

import (
	"captionsync/internal/drift"
	"captionsync/internal/matcher"
	"captionsync/internal/pacing"
	"captionsync/internal/quality"
	"captionsync/internal/rating"
)

const (
	defaultConfigPath           = "~/.config/captionsync/config.toml"
	projectConfigName           = "captionsync.toml"
	defaultReportDir            = "~/.local/share/captionsync/reports"
	defaultWorkDir              = "~/.cache/captionsync/work"
	defaultHistoryDB            = "~/.local/share/captionsync/history.db"
	defaultLogDir               = "~/.local/share/captionsync/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultSampleFPS            = 10.0
	defaultMaxWidth             = 1280
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultSampleTimeout        = 600
	defaultOCREngine            = "tesseract"
	defaultOCRLanguage          = "eng"
	defaultMinLineConfidence    = 0.5
	defaultRegionTop            = 0.0
	defaultRegionBottom         = 1.0
	defaultOCRWorkers           = 4
	defaultFrameTimeout         = 30
	defaultWhisperXModel        = "large-v3"
	defaultWhisperXVADMethod    = "silero"
	defaultTranscriptionTimeout = 1800
	defaultRedisAddr            = "127.0.0.1:6379"
	defaultQueueName            = "captionsync"
	defaultQueueConcurrency     = 2
	defaultQueueMaxRetry        = 3
	defaultJobTimeout           = 3600
	defaultNtfyTimeout          = 10
)

// SupportedOCREngines lists the recognizers this build can run.
var SupportedOCREngines = []string{defaultOCREngine}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ReportDir: defaultReportDir,
			WorkDir:   defaultWorkDir,
			HistoryDB: defaultHistoryDB,
		},
		Sampling: Sampling{
			FPS:            defaultSampleFPS,
			MaxWidth:       defaultMaxWidth,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultSampleTimeout,
		},
		OCR: OCR{
			Engine:              defaultOCREngine,
			Languages:           []string{defaultOCRLanguage},
			MinLineConfidence:   defaultMinLineConfidence,
			RegionTop:           defaultRegionTop,
			RegionBottom:        defaultRegionBottom,
			Workers:             defaultOCRWorkers,
			FrameTimeoutSeconds: defaultFrameTimeout,
		},
		Transcription: Transcription{
			Model:          defaultWhisperXModel,
			VADMethod:      defaultWhisperXVADMethod,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Matching: Matching{
			WindowMs: matcher.DefaultWindowMs,
		},
		Drift:  drift.DefaultConfig(),
		Rating: rating.DefaultConfig(),
		Layout: pacing.DefaultPolicy(),
		Quality: Quality{
			Thresholds: quality.DefaultThresholds(),
			Weights:    quality.DefaultWeights(),
		},
		Queue: Queue{
			RedisAddr:      defaultRedisAddr,
			Name:           defaultQueueName,
			Concurrency:    defaultQueueConcurrency,
			MaxRetry:       defaultQueueMaxRetry,
			TimeoutSeconds: defaultJobTimeout,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
