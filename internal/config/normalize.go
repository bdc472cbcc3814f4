package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"captionsync/internal/quality"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSampling()
	c.normalizeOCR()
	c.normalizeTranscription()
	if len(c.Quality.Weights) == 0 {
		c.Quality.Weights = quality.DefaultWeights()
	}
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	// An empty history_db disables history.
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeSampling() {
	c.Sampling.FFmpegBinary = strings.TrimSpace(c.Sampling.FFmpegBinary)
	if c.Sampling.FFmpegBinary == "" {
		c.Sampling.FFmpegBinary = defaultFFmpegBinary
	}
	c.Sampling.FFprobeBinary = strings.TrimSpace(c.Sampling.FFprobeBinary)
	if c.Sampling.FFprobeBinary == "" {
		c.Sampling.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeOCR() {
	c.OCR.Engine = strings.ToLower(strings.TrimSpace(c.OCR.Engine))
	if c.OCR.Engine == "" {
		c.OCR.Engine = defaultOCREngine
	}
	langs := make([]string, 0, len(c.OCR.Languages))
	for _, lang := range c.OCR.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		langs = []string{defaultOCRLanguage}
	}
	c.OCR.Languages = langs
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperXModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultWhisperXVADMethod
	}
	if c.Transcription.HFToken == "" {
		for _, key := range []string{"HUGGING_FACE_HUB_TOKEN", "HF_TOKEN"} {
			if value := strings.TrimSpace(os.Getenv(key)); value != "" {
				c.Transcription.HFToken = value
				break
			}
		}
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
}

func (c *Config) normalizeQueue() error {
	if value, ok := os.LookupEnv("CAPTIONSYNC_REDIS_ADDR"); ok && strings.TrimSpace(value) != "" {
		c.Queue.RedisAddr = strings.TrimSpace(value)
	}
	if c.Queue.RedisPassword == "" {
		if value, ok := os.LookupEnv("CAPTIONSYNC_REDIS_PASSWORD"); ok {
			c.Queue.RedisPassword = value
		}
	}
	if value, ok := os.LookupEnv("CAPTIONSYNC_REDIS_DB"); ok && strings.TrimSpace(value) != "" {
		db, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("CAPTIONSYNC_REDIS_DB: %w", err)
		}
		c.Queue.RedisDB = db
	}
	c.Queue.Name = strings.TrimSpace(c.Queue.Name)
	if c.Queue.Name == "" {
		c.Queue.Name = defaultQueueName
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("CAPTIONSYNC_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() error {
	if value, ok := os.LookupEnv("CAPTIONSYNC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
