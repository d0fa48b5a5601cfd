// Package logging provides structured logging for keygate.
//
// It wraps log/slog so every component logs with the same handler,
// level and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Security
//
// Never log client keys, tokens, secrets or passwords. Log user IDs instead.
package logging
