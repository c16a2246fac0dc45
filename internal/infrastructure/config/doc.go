// Package config provides 12-factor configuration management for the
// playground backend.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, allowed origins)
//   - Preview: quiet interval and headless probe settings
//   - Session: live session cap and idle reaping
//   - Challenges: catalog directory and optional remote index
//   - Logging: log level, output format and optional rotated file
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, ALLOW_ORIGINS, SHUTDOWN_WAIT
//   - PREVIEW_QUIET_INTERVAL, PREVIEW_MAX_MESSAGE
//   - PREVIEW_PROBE_ENABLED (off by default), PREVIEW_PROBE_TIMEOUT, PREVIEW_PROBE_POOL
//   - PREVIEW_PROBE_MAX_BYTES, PREVIEW_PROBE_MAX_SCRIPTS, PREVIEW_PROBE_MAX_LENGTH
//   - SESSION_MAX, SESSION_IDLE_TIMEOUT, SESSION_REAP_INTERVAL
//   - CHALLENGES_DIR, CHALLENGES_URL, CHALLENGES_REFRESH
//   - LOG_LEVEL, LOG_DEV, LOG_FILE
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
