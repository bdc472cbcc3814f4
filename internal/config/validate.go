package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateSampling,
		c.validateOCR,
		c.validateTranscription,
		c.validateRatingModels,
		c.validateQueue,
		c.validateNotifications,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSampling() error {
	if c.Sampling.FPS <= 0 || c.Sampling.FPS > 60 {
		return errors.New("sampling.fps must be in (0, 60]")
	}
	if c.Sampling.MaxWidth < 0 {
		return errors.New("sampling.max_width must be non-negative")
	}
	if c.Sampling.TimeoutSeconds < 0 {
		return errors.New("sampling.timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if !slices.Contains(SupportedOCREngines, c.OCR.Engine) {
		return fmt.Errorf("ocr.engine %q is not supported (supported: %s)", c.OCR.Engine, strings.Join(SupportedOCREngines, ", "))
	}
	if c.OCR.MinLineConfidence < 0 || c.OCR.MinLineConfidence > 1 {
		return errors.New("ocr.min_line_confidence must be between 0 and 1")
	}
	if c.OCR.RegionTop < 0 || c.OCR.RegionBottom > 1 || c.OCR.RegionTop >= c.OCR.RegionBottom {
		return errors.New("ocr.region_top and ocr.region_bottom must satisfy 0 <= top < bottom <= 1")
	}
	if c.OCR.Workers <= 0 {
		return errors.New("ocr.workers must be positive")
	}
	if c.OCR.RateLimit < 0 {
		return errors.New("ocr.rate_limit must be non-negative")
	}
	if c.OCR.FrameTimeoutSeconds < 0 {
		return errors.New("ocr.frame_timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero":
	case "pyannote":
		if strings.TrimSpace(c.Transcription.HFToken) == "" {
			return errors.New("transcription.hf_token is required when transcription.vad_method is pyannote (or set HF_TOKEN)")
		}
	default:
		return fmt.Errorf("transcription.vad_method %q is not supported (silero or pyannote)", c.Transcription.VADMethod)
	}
	if c.Transcription.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateRatingModels() error {
	if c.Matching.WindowMs <= 0 {
		return errors.New("matching.window_ms must be positive")
	}
	if err := c.Drift.Validate(); err != nil {
		return fmt.Errorf("drift: %w", err)
	}
	if err := c.Rating.Validate(); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := c.Quality.Thresholds.Validate(); err != nil {
		return fmt.Errorf("quality.thresholds: %w", err)
	}
	if err := c.Quality.Weights.Validate(); err != nil {
		return fmt.Errorf("quality.weights: %w", err)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if strings.TrimSpace(c.Queue.RedisAddr) == "" {
		return errors.New("queue.redis_addr must be set")
	}
	if c.Queue.Concurrency <= 0 {
		return errors.New("queue.concurrency must be positive")
	}
	if c.Queue.MaxRetry < 0 {
		return errors.New("queue.max_retry must be non-negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be a full http(s) URL")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
