// Package logging provides structured logging for the bridge.
//
// It wraps log/slog so every record carries the service name and build
// version, and exposes the slog methods directly:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("tick complete", "duration_ms", 12)
//	logger.Component("router").Warn("command dropped", "topic", topic)
//
// Configuration (YAML or LOG_LEVEL / LOG_FORMAT / LOG_OUTPUT):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log the Jellyfin API key or the MQTT password.
package logging
