// Package log provides structured logging built on log/slog with automatic
// masking of sensitive values.
//
// The SecureHandler masks values stored under credential-like keys
// (password, secret_key, access_key, ...) and values that look like
// credentials (Bearer/Basic tokens, AWS access keys, URLs with embedded
// user:password). FTP and S3 credentials pass through the publish path,
// so every logger in the application is built from NewSecureLogger.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("publishing", "host", host, "password", pass) // password=***REDACTED***
package log
