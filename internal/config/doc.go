// Package config loads, normalizes, and validates captionsync configuration.
//
// Load merges repository defaults, an optional TOML file, and environment
// overrides (HF_TOKEN, CAPTIONSYNC_REDIS_ADDR, CAPTIONSYNC_LOG_LEVEL, ...),
// then validates every section including the drift, rating, pacing, and
// quality tunables owned by their packages. Failures carry
// services.ErrConfiguration so the CLI exits with the invalid-input code.
package config
